package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/simonyos/travelagent/internal/llm"
	"github.com/simonyos/travelagent/internal/resilience"
)

// ErrOrphanToolResult is returned when a tool result does not answer an
// open request of the preceding assistant message.
var ErrOrphanToolResult = errors.New("tool result does not match a pending tool request")

// ErrEmptyResponse is returned when the backend replies with neither text
// nor tool requests.
var ErrEmptyResponse = errors.New("empty response: no text and no tool requests")

// ConvergenceError is returned when the model still asks for tools after
// the iteration cap.
type ConvergenceError struct {
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("could not converge: model still requested tools after %d iterations", e.Iterations)
}

// Failure classifications reported in Result.Failure.
const (
	FailureConvergence      = "convergence"
	FailureBackendExhausted = "backend_exhausted"
	FailureBackendFatal     = "backend_fatal"
	FailureCanceled         = "canceled"
	FailureInternal         = "internal"
)

// Classify maps a Run error to its failure classification. It returns ""
// for a nil error.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var conv *ConvergenceError
	var exhausted *resilience.ExhaustedError
	switch {
	case errors.As(err, &conv):
		return FailureConvergence
	case errors.As(err, &exhausted):
		return FailureBackendExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	case llm.IsTransient(err):
		return FailureBackendExhausted
	case llm.IsFatal(err):
		return FailureBackendFatal
	}
	return FailureInternal
}
