package workflow

import (
	"context"
	"fmt"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// TriggerGuard decides whether the caller in ctx may fire the trigger.
type TriggerGuard func(ctx context.Context, trigger Trigger) bool

// transitions is keyed by the (middle, final) pair:
//
//	verify:  middle pending|rejected|approved -> approved, final unchanged
//	approve: middle approved, final != approved -> final approved
//	reject:  any -> (rejected, rejected)
//	reset:   any -> (pending, pending)
var transitions = buildTransitions()

func buildTransitions() map[State]map[Trigger]State {
	table := make(map[State]map[Trigger]State)
	for _, s := range AllStates() {
		next := map[Trigger]State{
			TriggerVerify: {Middle: entity.ApprovalApproved, Final: s.Final},
			TriggerReject: StateRejected,
			TriggerReset:  StatePending,
		}
		if blockingGate(s, TriggerApprove) == "" {
			next[TriggerApprove] = StateApproved
		}
		table[s] = next
	}
	return table
}

// blockingGate returns the gate that stops trigger from firing in s.
func blockingGate(s State, trigger Trigger) Gate {
	switch {
	case !s.Middle.IsValid():
		return GateMiddle
	case !s.Final.IsValid():
		return GateFinal
	case trigger != TriggerApprove:
		return ""
	case s.Middle != entity.ApprovalApproved:
		return GateMiddle
	case s.Final == entity.ApprovalApproved:
		return GateFinal
	}
	return ""
}

// ApprovalMachine tracks one order's status pair through approval triggers.
type ApprovalMachine struct {
	state State
	guard TriggerGuard
}

// NewApprovalMachine starts a machine at initial. A nil guard permits every
// transition the state allows.
func NewApprovalMachine(initial State, guard TriggerGuard) *ApprovalMachine {
	return &ApprovalMachine{state: initial, guard: guard}
}

// State returns the current status pair
func (m *ApprovalMachine) State() State {
	return m.state
}

// Fire moves the machine along trigger. A refused trigger returns a
// *TransitionError; a failed guard returns ErrGuardFailed. Either way the
// state is left as it was.
func (m *ApprovalMachine) Fire(ctx context.Context, trigger Trigger) error {
	to, ok := transitions[m.state][trigger]
	if !ok {
		return &TransitionError{Trigger: trigger, From: m.state, Gate: blockingGate(m.state, trigger)}
	}
	if m.guard != nil && !m.guard(ctx, trigger) {
		return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.state)
	}
	m.state = to
	return nil
}
