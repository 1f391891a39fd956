package operations

import (
	"context"
	"fmt"
	"log/slog"
)

// State is a step in the lifecycle shared by claim, transfer and create-token.
type State string

const (
	StateIdle              State = "idle"
	StateValidating        State = "validating"
	StatePreflightChecking State = "preflight_checking"
	StateBuilding          State = "building"
	StateAwaitingSignature State = "awaiting_signature"
	StateSubmitted         State = "submitted"
	StatePolling           State = "polling"
	StateConfirmed         State = "confirmed"
	StateTimedOut          State = "timed_out"
	StateFailed            State = "failed"
)

// stateRank orders the non-terminal states. Terminal states share the top rank.
var stateRank = map[State]int{
	StateIdle:              0,
	StateValidating:        1,
	StatePreflightChecking: 2,
	StateBuilding:          3,
	StateAwaitingSignature: 4,
	StateSubmitted:         5,
	StatePolling:           6,
	StateConfirmed:         7,
	StateTimedOut:          7,
	StateFailed:            7,
}

// Terminal reports whether no further transition is allowed from s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateTimedOut || s == StateFailed
}

// Tracker enforces forward-only transitions for one operation and logs each.
// Steps may be skipped (a claim has no preflight or build step) but never
// revisited. A Tracker belongs to a single operation and is not safe for
// concurrent use.
type Tracker struct {
	op     Operation
	state  State
	logger *slog.Logger
}

// NewTracker starts a tracker in StateIdle.
func NewTracker(op Operation, logger *slog.Logger) *Tracker {
	return &Tracker{op: op, state: StateIdle, logger: logger}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Advance moves to next. It fails if the current state is terminal or next
// does not come after it.
func (t *Tracker) Advance(ctx context.Context, next State) error {
	nextRank, ok := stateRank[next]
	if !ok {
		return fmt.Errorf("unknown state %q", next)
	}
	if t.state.Terminal() || nextRank <= stateRank[t.state] {
		return fmt.Errorf("invalid %s transition from %s to %s", t.op, t.state, next)
	}

	t.logger.DebugContext(ctx, "operation state transition",
		"operation", t.op,
		"from", t.state,
		"to", next,
	)
	t.state = next
	return nil
}
