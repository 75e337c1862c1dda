package frame

import (
	"github.com/pkg/errors"
)

// StateTracker mirrors the resource state of every swap chain buffer on the
// CPU so that barriers can be checked before they're recorded.
type StateTracker struct {
	states []ResourceState
}

// NewStateTracker tracks n buffers, all Presentable.
func NewStateTracker(n int) *StateTracker {
	return &StateTracker{states: make([]ResourceState, n)}
}

// State returns the state of buffer index.
func (s *StateTracker) State(index int) ResourceState {
	return s.states[index]
}

// Transition moves buffer index from before to after. The buffer has to be in
// the before state.
func (s *StateTracker) Transition(index int, before, after ResourceState) error {
	if index < 0 || index >= len(s.states) {
		return errors.Wrapf(ErrInvalidOperation, "buffer index %d out of range [0, %d)", index, len(s.states))
	}
	if before == after {
		return errors.Wrapf(ErrInvalidOperation, "buffer %d: no-op transition %s", index, before)
	}
	if s.states[index] != before {
		return errors.Wrapf(ErrInvalidOperation, "buffer %d: transition %s -> %s but buffer is %s",
			index, before, after, s.states[index])
	}
	s.states[index] = after
	return nil
}
