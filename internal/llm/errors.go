package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TransientReason explains why a backend failure is expected to clear up.
type TransientReason string

const (
	ReasonRateLimit   TransientReason = "rate_limit"
	ReasonTimeout     TransientReason = "timeout"
	ReasonUnavailable TransientReason = "unavailable"
)

// ErrMissingAPIKey is returned when a provider has no credentials configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// TransientError is a backend failure worth retrying after a delay.
type TransientError struct {
	Provider   string
	Reason     TransientReason
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	msg := fmt.Sprintf("%s: transient %s", e.Provider, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is a backend failure that retrying cannot fix (auth, malformed request).
type FatalError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%s: request failed", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsTransient reports whether err should go through the retry path.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err is a non-retryable backend failure.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// classifyStatus maps a non-2xx HTTP response to the error taxonomy.
// status is the backend's textual status where it has one (Gemini's
// "RESOURCE_EXHAUSTED").
func classifyStatus(provider string, code int, status, body string) error {
	err := errors.New(strings.TrimSpace(body))
	if strings.EqualFold(status, "RESOURCE_EXHAUSTED") {
		return &TransientError{Provider: provider, Reason: ReasonRateLimit, StatusCode: code, Err: err}
	}
	switch code {
	case http.StatusTooManyRequests:
		return &TransientError{Provider: provider, Reason: ReasonRateLimit, StatusCode: code, Err: err}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return &TransientError{Provider: provider, Reason: ReasonTimeout, StatusCode: code, Err: err}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &TransientError{Provider: provider, Reason: ReasonUnavailable, StatusCode: code, Err: err}
	case 529: // Anthropic "overloaded"
		return &TransientError{Provider: provider, Reason: ReasonUnavailable, StatusCode: code, Err: err}
	}
	return &FatalError{Provider: provider, StatusCode: code, Err: err}
}

// classifyTransport maps an http.Client error. A cancelled caller context is
// returned unchanged so the loop can tell it apart from a backend timeout.
func classifyTransport(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Provider: provider, Reason: ReasonTimeout, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return &TransientError{Provider: provider, Reason: ReasonTimeout, Err: err}
		}
		return &TransientError{Provider: provider, Reason: ReasonUnavailable, Err: err}
	}
	return &FatalError{Provider: provider, Err: err}
}
