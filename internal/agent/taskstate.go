package agent

import (
	"sync"
	"time"
)

// State is a phase of the agent loop.
type State string

const (
	StateAwaitingModel State = "awaiting_model"
	StateDispatching   State = "dispatching"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Terminal reports whether the loop has stopped.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TaskState tracks one Run: its phase and iteration count.
type TaskState struct {
	mu sync.RWMutex

	ID        string
	StartedAt time.Time

	state            State
	currentIteration int
	maxIterations    int
}

// NewTaskState creates a task state in AWAITING_MODEL.
func NewTaskState(id string, maxIterations int) *TaskState {
	return &TaskState{
		ID:            id,
		StartedAt:     time.Now(),
		state:         StateAwaitingModel,
		maxIterations: maxIterations,
	}
}

// IncrementIteration starts a model turn and returns its number (from 1).
func (ts *TaskState) IncrementIteration() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.currentIteration++
	ts.state = StateAwaitingModel
	return ts.currentIteration
}

// Iteration returns the number of model turns started so far.
func (ts *TaskState) Iteration() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.currentIteration
}

// HasReachedMaxIterations checks if max iterations have been reached
func (ts *TaskState) HasReachedMaxIterations() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.currentIteration >= ts.maxIterations
}

// Transition moves to s. Terminal states are final.
func (ts *TaskState) Transition(s State) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.state.Terminal() {
		return
	}
	ts.state = s
}

// State returns the current phase.
func (ts *TaskState) State() State {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.state
}

// Duration returns how long the task has been running
func (ts *TaskState) Duration() time.Duration {
	return time.Since(ts.StartedAt)
}

// Summary returns log attributes describing the task. The run ID is left to
// the caller's logger.
func (ts *TaskState) Summary() []any {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return []any{
		"state", string(ts.state),
		"iterations", ts.currentIteration,
		"max_iterations", ts.maxIterations,
		"duration", time.Since(ts.StartedAt).Round(time.Millisecond).String(),
	}
}
