package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// Client sends queries to a Server.
type Client struct {
	conn *nats.Conn
	cfg  NATSConfig
}

// NewClient creates a client on an established connection.
func NewClient(conn *nats.Conn, cfg NATSConfig) *Client {
	if cfg.Subject == "" {
		cfg.Subject = DefaultNATSConfig().Subject
	}
	return &Client{conn: conn, cfg: cfg}
}

// Ask sends query and waits for the answer. A run that failed on the server
// returns the response together with a *RemoteError.
func (c *Client) Ask(ctx context.Context, query string) (*AskResponse, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	data, err := Encode(NewAskRequest(query))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok && c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	msg, err := c.conn.RequestWithContext(ctx, c.cfg.Subject, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("no server is listening on %s: %w", c.cfg.Subject, err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	resp, err := DecodeAskResponse(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, err)
	}
	return resp, resp.Err()
}
