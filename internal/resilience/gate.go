// Package resilience paces and retries calls to the language-model backend.
package resilience

import (
	"context"
	"sync"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Gate enforces a minimum spacing between admitted calls. One Gate is shared
// by every conversation in the process, so the spacing holds globally.
type Gate struct {
	spacing time.Duration

	mu    sync.Mutex
	last  time.Time
	now   func() time.Time
	sleep SleepFunc
}

// NewGate creates a gate admitting at most one call per spacing.
func NewGate(spacing time.Duration) *Gate {
	return &Gate{spacing: spacing, now: time.Now, sleep: Sleep}
}

// WithClock replaces the time source and sleeper. Used by tests.
func (g *Gate) WithClock(now func() time.Time, sleep SleepFunc) *Gate {
	g.now = now
	g.sleep = sleep
	return g
}

// Spacing returns the configured minimum interval.
func (g *Gate) Spacing() time.Duration {
	if g == nil {
		return 0
	}
	return g.spacing
}

// Wait blocks until the caller may issue a call. Each caller reserves the
// next free slot, at least spacing after the previous one, and then sleeps
// outside the lock so a waiter whose context ends returns at once.
func (g *Gate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g == nil || g.spacing <= 0 {
		return nil
	}

	g.mu.Lock()
	now := g.now()
	prev := g.last
	slot := now
	if !prev.IsZero() {
		if next := prev.Add(g.spacing); next.After(now) {
			slot = next
		}
	}
	g.last = slot
	g.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}
	if err := g.sleep(ctx, wait); err != nil {
		g.mu.Lock()
		// Give the slot back unless a later caller has already queued behind it.
		if g.last.Equal(slot) {
			g.last = prev
		}
		g.mu.Unlock()
		return err
	}
	return nil
}
