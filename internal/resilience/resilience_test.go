package resilience

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

var errBusy = errors.New("busy")

func isBusy(err error) bool { return errors.Is(err, errBusy) }

func TestBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		base    time.Duration
		max     time.Duration
		want    time.Duration
	}{
		{name: "first retry", attempt: 0, base: 2 * time.Second, max: time.Minute, want: 2 * time.Second},
		{name: "second retry", attempt: 1, base: 2 * time.Second, max: time.Minute, want: 4 * time.Second},
		{name: "fourth retry", attempt: 3, base: 2 * time.Second, max: time.Minute, want: 16 * time.Second},
		{name: "capped", attempt: 5, base: 2 * time.Second, max: time.Minute, want: time.Minute},
		{name: "uncapped", attempt: 6, base: time.Second, max: 0, want: 64 * time.Second},
		{name: "negative attempt", attempt: -1, base: time.Second, max: time.Minute, want: time.Second},
		{name: "zero base", attempt: 3, base: 0, max: time.Minute, want: 0},
		{name: "huge attempt", attempt: 500, base: time.Second, max: time.Hour, want: time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Backoff(tt.attempt, tt.base, tt.max))
		})
	}
}

func TestBackoff_Monotonic(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 80; attempt++ {
		d := Backoff(attempt, 100*time.Millisecond, 0)
		require.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestGate_Sequential(t *testing.T) {
	clock := newFakeClock()
	gate := NewGate(4 * time.Second).WithClock(clock.Now, clock.Sleep)
	ctx := context.Background()

	require.NoError(t, gate.Wait(ctx))
	require.Empty(t, clock.Sleeps(), "first call is admitted immediately")

	require.NoError(t, gate.Wait(ctx))
	require.Equal(t, []time.Duration{4 * time.Second}, clock.Sleeps())

	clock.Advance(3 * time.Second)
	require.NoError(t, gate.Wait(ctx))
	require.Equal(t, []time.Duration{4 * time.Second, time.Second}, clock.Sleeps())

	clock.Advance(10 * time.Second)
	require.NoError(t, gate.Wait(ctx))
	require.Len(t, clock.Sleeps(), 2, "no wait once spacing has already elapsed")
}

func TestGate_ConcurrentCallersShareSpacing(t *testing.T) {
	clock := newFakeClock()
	var mu sync.Mutex
	var waits []time.Duration
	// The clock stays frozen, so every caller reserves its own slot.
	record := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		waits = append(waits, d)
		return nil
	}
	gate := NewGate(time.Second).WithClock(clock.Now, record)

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, gate.Wait(context.Background()))
		}()
	}
	wg.Wait()

	sort.Slice(waits, func(i, j int) bool { return waits[i] < waits[j] })
	require.Len(t, waits, callers-1)
	for i, d := range waits {
		require.Equal(t, time.Duration(i+1)*time.Second, d)
	}
}

func TestGate_CancelledWaiterReturnsPromptly(t *testing.T) {
	spacing := 300 * time.Millisecond
	gate := NewGate(spacing)
	require.NoError(t, gate.Wait(context.Background()))

	done := make(chan error, 1)
	go func() { done <- gate.Wait(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := gate.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 150*time.Millisecond)

	require.NoError(t, <-done)
}

func TestGate_CancelledWaiterReleasesSlot(t *testing.T) {
	clock := newFakeClock()
	gate := NewGate(time.Second).WithClock(clock.Now, clock.Sleep)
	require.NoError(t, gate.Wait(context.Background()))

	gate.WithClock(clock.Now, func(context.Context, time.Duration) error { return context.Canceled })
	require.ErrorIs(t, gate.Wait(context.Background()), context.Canceled)

	gate.WithClock(clock.Now, clock.Sleep)
	require.NoError(t, gate.Wait(context.Background()))
	require.Equal(t, []time.Duration{time.Second}, clock.Sleeps(), "the failed waiter's slot is reused")
}

func TestGate_RealClockSpacing(t *testing.T) {
	spacing := 20 * time.Millisecond
	gate := NewGate(spacing)

	start := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}
	require.GreaterOrEqual(t, time.Since(start), 3*spacing)
}

func TestGate_ZeroAndNil(t *testing.T) {
	var nilGate *Gate
	require.NoError(t, nilGate.Wait(context.Background()))
	require.Zero(t, nilGate.Spacing())

	clock := newFakeClock()
	gate := NewGate(0).WithClock(clock.Now, clock.Sleep)
	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}
	require.Empty(t, clock.Sleeps())
}

func TestGate_Cancelled(t *testing.T) {
	gate := NewGate(time.Hour)
	require.NoError(t, gate.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := gate.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	const maxAttempts = 5
	for k := 0; k < maxAttempts; k++ {
		clock := newFakeClock()
		calls := 0
		policy := Policy{MaxAttempts: maxAttempts, InitialDelay: time.Second, MaxDelay: time.Minute, Sleep: clock.Sleep}

		got, err := Retry(context.Background(), policy, nil, isBusy, func(context.Context) (string, error) {
			calls++
			if calls <= k {
				return "", errBusy
			}
			return "ok", nil
		})

		require.NoError(t, err, "k=%d", k)
		require.Equal(t, "ok", got)
		require.Equal(t, k+1, calls, "k=%d", k)
		require.Len(t, clock.Sleeps(), k)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	policy := Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, Sleep: clock.Sleep}

	_, err := Retry(context.Background(), policy, nil, isBusy, func(context.Context) (int, error) {
		calls++
		return 0, errBusy
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Sleeps())
}

func TestRetry_NonTransientStopsImmediately(t *testing.T) {
	fatal := errors.New("unauthorized")
	calls := 0
	_, err := Retry(context.Background(), Policy{MaxAttempts: 5}, nil, isBusy, func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, 1, calls)

	var exhausted *ExhaustedError
	require.False(t, errors.As(err, &exhausted))
}

func TestRetry_EveryAttemptPassesGate(t *testing.T) {
	clock := newFakeClock()
	gate := NewGate(4*time.Second).WithClock(clock.Now, clock.Sleep)

	var admitted []time.Time
	policy := Policy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Minute, Sleep: clock.Sleep}
	_, _ = Retry(context.Background(), policy, gate, isBusy, func(context.Context) (int, error) {
		admitted = append(admitted, clock.Now())
		return 0, errBusy
	})

	require.Len(t, admitted, 3)
	for i := 1; i < len(admitted); i++ {
		require.GreaterOrEqual(t, admitted[i].Sub(admitted[i-1]), 4*time.Second)
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	clock := newFakeClock()
	var attempts []int
	var delays []time.Duration
	policy := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Sleep:        clock.Sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			attempts = append(attempts, attempt)
			delays = append(delays, delay)
			require.ErrorIs(t, err, errBusy)
		},
	}
	_, _ = Retry(context.Background(), policy, nil, isBusy, func(context.Context) (int, error) {
		return 0, errBusy
	})

	require.Equal(t, []int{1, 2}, attempts)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := Policy{
		MaxAttempts:  5,
		InitialDelay: time.Hour,
		OnRetry:      func(int, time.Duration, error) { cancel() },
	}
	_, err := Retry(ctx, policy, nil, isBusy, func(context.Context) (int, error) {
		calls++
		return 0, errBusy
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRetry_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), Policy{}, nil, isBusy, func(context.Context) (int, error) {
		calls++
		return 0, errBusy
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 1, calls)
}
