package resilience

import (
	"context"
	"fmt"
	"time"
)

// Policy controls how transient failures are retried.
type Policy struct {
	// MaxAttempts bounds the total number of calls, first attempt included.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// OnRetry is called before each backoff wait. attempt counts from 1.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep defaults to the timer-based Sleep.
	Sleep SleepFunc
}

// DefaultPolicy mirrors the configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
	}
}

// ExhaustedError is returned when every attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, fails with a non-transient error, or
// MaxAttempts calls have been made. Every call first passes the gate.
func Retry[T any](ctx context.Context, p Policy, gate *Gate, isTransient func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 0; ; attempt++ {
		if err := gate.Wait(ctx); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !isTransient(err) {
			return zero, err
		}
		if attempt+1 >= attempts {
			return zero, &ExhaustedError{Attempts: attempt + 1, Err: err}
		}

		delay := Backoff(attempt, p.InitialDelay, p.MaxDelay)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}
