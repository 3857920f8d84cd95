// Package agent runs the tool-calling loop: call the model, dispatch the
// tools it asks for, feed the results back, and stop at a final answer.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simonyos/travelagent/internal/llm"
	"github.com/simonyos/travelagent/internal/resilience"
	"github.com/simonyos/travelagent/internal/tools"
)

const (
	DefaultMaxIterations   = 10
	DefaultToolConcurrency = 4
)

// EventHandler receives callbacks during agent execution. Calls for one Run
// are made from the goroutine running it, in loop order.
type EventHandler interface {
	OnThinking(iteration int)
	OnToolUse(req llm.ToolRequest)
	OnToolResult(req llm.ToolRequest, result tools.ToolResult)
	OnRetry(attempt int, delay time.Duration, err error)
}

// Config tunes the loop. Zero values take the defaults.
type Config struct {
	MaxIterations   int
	ToolConcurrency int
	SystemPrompt    string
	Retry           resilience.Policy
	CallTimeout     time.Duration // per backend attempt
	Logger          *slog.Logger
}

// Result is the outcome of one Run. On failure it holds everything that
// happened up to the failure.
type Result struct {
	ID           string          `json:"id"`
	Query        string          `json:"query"`
	Answer       string          `json:"answer"`
	State        State           `json:"state"`
	Iterations   int             `json:"iterations"`
	Conversation []llm.Message   `json:"conversation"`
	ToolCalls    []ToolExecution `json:"tool_calls"`
	Failure      string          `json:"failure,omitempty"`
}

// Agent orchestrates the LLM and tools. It holds no per-conversation state
// and may be shared by concurrent Runs.
type Agent struct {
	provider llm.Provider
	registry *tools.Registry
	gate     *resilience.Gate
	cfg      Config
	handler  EventHandler
	logger   *slog.Logger
}

// New creates an agent. gate may be nil for unpaced calls.
func New(provider llm.Provider, registry *tools.Registry, gate *resilience.Gate, cfg Config) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.ToolConcurrency <= 0 {
		cfg.ToolConcurrency = DefaultToolConcurrency
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = BuildSystemPrompt(registry.Names())
	}
	if cfg.Retry.MaxAttempts <= 0 {
		hook, sleep := cfg.Retry.OnRetry, cfg.Retry.Sleep
		cfg.Retry = resilience.DefaultPolicy()
		cfg.Retry.OnRetry, cfg.Retry.Sleep = hook, sleep
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		provider: provider,
		registry: registry,
		gate:     gate,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetEventHandler sets the callback handler for agent events. Set it before
// the first Run.
func (a *Agent) SetEventHandler(h EventHandler) {
	a.handler = h
}

// Provider returns the backend in use.
func (a *Agent) Provider() llm.Provider { return a.provider }

// Run answers one query in a fresh conversation. On failure the partial
// result is returned together with the error.
func (a *Agent) Run(ctx context.Context, query string) (*Result, error) {
	ts := NewTaskState(uuid.NewString(), a.cfg.MaxIterations)
	conv := NewConversation(a.cfg.SystemPrompt, query)
	specs := a.registry.Specs()
	logger := a.logger.With("run", ts.ID)
	result := &Result{ID: ts.ID, Query: query, ToolCalls: []ToolExecution{}}

	finish := func(err error) (*Result, error) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
				err = errors.Join(ctxErr, err)
			}
			ts.Transition(StateFailed)
		} else {
			ts.Transition(StateDone)
		}
		result.State = ts.State()
		result.Iterations = ts.Iteration()
		result.Conversation = conv.Messages()
		result.Failure = Classify(err)

		if err != nil {
			logger.Warn("run failed", append(ts.Summary(), "failure", result.Failure, "error", err)...)
		} else {
			logger.Info("run finished", ts.Summary()...)
		}
		return result, err
	}

	logger.Debug("run started", "provider", a.provider.Name(), "model", a.provider.ModelName())

	for {
		iteration := ts.IncrementIteration()
		if a.handler != nil {
			a.handler.OnThinking(iteration)
		}

		resp, err := a.callModel(ctx, logger, conv.Messages(), specs)
		if err != nil {
			return finish(err)
		}

		reqs := assignIDs(resp.ToolRequests)
		if err := conv.Append(llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolRequests: reqs}); err != nil {
			return finish(err)
		}
		logger.Debug("model responded", "iteration", iteration, "tool_requests", len(reqs),
			"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)

		if len(reqs) == 0 {
			result.Answer = resp.Content
			return finish(nil)
		}
		if ts.HasReachedMaxIterations() {
			return finish(&ConvergenceError{Iterations: iteration})
		}

		ts.Transition(StateDispatching)
		if a.handler != nil {
			for _, req := range reqs {
				a.handler.OnToolUse(req)
			}
		}

		for i, exec := range a.dispatch(ctx, reqs) {
			if a.handler != nil {
				a.handler.OnToolResult(reqs[i], exec.Result)
			}
			if !exec.Result.Success {
				logger.Debug("tool failed", "tool", exec.Name, "id", exec.ID, "error", exec.Result.Error)
			}

			msg := llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: exec.ID,
				Name:       exec.Name,
				Content:    exec.Result.Text(),
				IsError:    !exec.Result.Success,
			}
			if err := conv.Append(msg); err != nil {
				logger.Warn("dropping tool result", "tool", exec.Name, "error", err)
				continue
			}
			result.ToolCalls = append(result.ToolCalls, exec)
		}
	}
}

// callModel sends the conversation through the pacing gate and retry policy.
// Each attempt gets its own timeout; an attempt that times out is transient,
// a cancelled parent context is not.
func (a *Agent) callModel(ctx context.Context, logger *slog.Logger, messages []llm.Message, specs []llm.ToolSpec) (*llm.ToolCallResponse, error) {
	policy := a.cfg.Retry
	hook := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("backend call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		if a.handler != nil {
			a.handler.OnRetry(attempt, delay, err)
		}
		if hook != nil {
			hook(attempt, delay, err)
		}
	}

	isTransient := func(err error) bool {
		return ctx.Err() == nil && llm.IsTransient(err)
	}

	return resilience.Retry(ctx, policy, a.gate, isTransient, func(ctx context.Context) (*llm.ToolCallResponse, error) {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if a.cfg.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
		}
		defer cancel()

		resp, err := a.provider.GenerateWithTools(callCtx, messages, specs)
		if err != nil {
			if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !llm.IsTransient(err) {
				err = &llm.TransientError{Provider: a.provider.Name(), Reason: llm.ReasonTimeout, Err: err}
			}
			return nil, err
		}
		if resp == nil || (len(resp.ToolRequests) == 0 && strings.TrimSpace(resp.Content) == "") {
			return nil, &llm.FatalError{Provider: a.provider.Name(), Err: ErrEmptyResponse}
		}
		return resp, nil
	})
}
