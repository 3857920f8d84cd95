package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/simonyos/travelagent/internal/agent"
)

// FailureInvalidRequest classifies requests that never reached the agent.
const FailureInvalidRequest = "invalid_request"

// Runner answers one query. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, query string) (*agent.Result, error)
}

// Server answers AskRequests from a NATS queue group. Each request runs in
// its own goroutine with its own conversation; runs share only what the
// Runner shares.
type Server struct {
	conn   *nats.Conn
	cfg    NATSConfig
	runner Runner
	logger *slog.Logger

	mu     sync.Mutex
	sub    *nats.Subscription
	closed bool
	wg     sync.WaitGroup
	active atomic.Int64

	// Context for in-flight runs
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server. Call Start to begin receiving requests.
func NewServer(conn *nats.Conn, cfg NATSConfig, runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultNATSConfig()
	if cfg.Subject == "" {
		cfg.Subject = defaults.Subject
	}
	if cfg.Queue == "" {
		cfg.Queue = defaults.Queue
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		conn:   conn,
		cfg:    cfg,
		runner: runner,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the request subject.
func (s *Server) Start() error {
	if s.conn == nil {
		return ErrNotConnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return ErrServerStarted
	}

	sub, err := s.conn.QueueSubscribe(s.cfg.Subject, s.cfg.Queue, s.onMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Subject, err)
	}
	s.sub = sub
	s.logger.Info("serving", "subject", s.cfg.Subject, "queue", s.cfg.Queue)
	return nil
}

// onMessage hands the request to its own goroutine so a slow run does not
// hold up the subscription.
func (s *Server) onMessage(msg *nats.Msg) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.active.Add(1)
		defer s.active.Add(-1)

		resp := s.handle(s.ctx, msg.Data)
		if msg.Reply == "" {
			s.logger.Warn("request has no reply subject", "id", resp.ID)
			return
		}

		data, err := Encode(resp)
		if err != nil {
			s.logger.Error("failed to encode response", "id", resp.ID, "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			s.logger.Error("failed to send response", "id", resp.ID, "error", err)
		}
	}()
}

// handle runs one request and never fails: errors are reported in the
// response.
func (s *Server) handle(ctx context.Context, data []byte) *AskResponse {
	start := time.Now()

	req, err := DecodeAskRequest(data)
	if err != nil {
		return &AskResponse{
			Failure: FailureInvalidRequest,
			Error:   fmt.Sprintf("%s: %s", ErrInvalidRequest, err),
		}
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if strings.TrimSpace(req.Query) == "" {
		return &AskResponse{ID: req.ID, Failure: FailureInvalidRequest, Error: ErrEmptyQuery.Error()}
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	logger := s.logger.With("id", req.ID)
	logger.Info("request received", "query", req.Query)

	result, err := s.runner.Run(ctx, req.Query)
	resp := &AskResponse{ID: req.ID, Duration: time.Since(start)}
	if result != nil {
		resp.Answer = result.Answer
		resp.State = result.State
		resp.Failure = result.Failure
		resp.Iterations = result.Iterations
		resp.Conversation = result.Conversation
		resp.ToolCalls = result.ToolCalls
	}
	if err != nil {
		resp.Error = err.Error()
		if resp.Failure == "" {
			resp.Failure = agent.Classify(err)
		}
		logger.Warn("request failed", "failure", resp.Failure, "duration", resp.Duration, "error", err)
		return resp
	}

	logger.Info("request answered", "iterations", resp.Iterations, "duration", resp.Duration)
	return resp
}

// Active returns the number of requests being processed.
func (s *Server) Active() int {
	return int(s.active.Load())
}

// Shutdown stops accepting requests and waits for in-flight runs. If ctx
// ends first, in-flight runs are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("failed to unsubscribe", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
