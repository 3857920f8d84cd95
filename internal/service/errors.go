// Package service exposes the agent over NATS request/reply so that many
// independent conversations can be served by one process.
package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected     = errors.New("not connected to NATS")
	ErrConnectionFailed = errors.New("failed to connect to NATS")
	ErrEmptyQuery       = errors.New("query is empty")
	ErrInvalidRequest   = errors.New("invalid request format")
	ErrInvalidResponse  = errors.New("invalid response format")
	ErrServerStarted    = errors.New("server already started")
)

// RemoteError is a failed run reported by the server.
type RemoteError struct {
	Failure string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Failure == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Failure, e.Message)
}
