package workflow

import (
	"fmt"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// State is the status pair of one order: the middle manager gate and the
// final manager gate. Payment and receipt flags are not part of it.
type State struct {
	Middle entity.ApprovalStatus
	Final  entity.ApprovalStatus
}

var (
	StatePending  = State{Middle: entity.ApprovalPending, Final: entity.ApprovalPending}
	StateVerified = State{Middle: entity.ApprovalApproved, Final: entity.ApprovalPending}
	StateApproved = State{Middle: entity.ApprovalApproved, Final: entity.ApprovalApproved}
	StateRejected = State{Middle: entity.ApprovalRejected, Final: entity.ApprovalRejected}
)

// StateOf reads the status pair off a line.
func StateOf(line *entity.PurchaseLine) State {
	return State{Middle: line.MiddleManagerStatus, Final: line.FinalManagerStatus}
}

// AllStates returns every combination of the two gates.
func AllStates() []State {
	statuses := []entity.ApprovalStatus{entity.ApprovalPending, entity.ApprovalApproved, entity.ApprovalRejected}
	states := make([]State, 0, len(statuses)*len(statuses))
	for _, m := range statuses {
		for _, f := range statuses {
			states = append(states, State{Middle: m, Final: f})
		}
	}
	return states
}

// String returns the string representation of the state
func (s State) String() string {
	return fmt.Sprintf("%s/%s", s.Middle, s.Final)
}

// IsValid returns true if both gates hold a known status
func (s State) IsValid() bool {
	return s.Middle.IsValid() && s.Final.IsValid()
}

// Gate names one of the two approval columns of an order.
type Gate string

const (
	GateMiddle Gate = "middle_manager"
	GateFinal  Gate = "final_manager"
)

// Status returns the status the gate holds in s.
func (s State) Status(g Gate) entity.ApprovalStatus {
	if g == GateFinal {
		return s.Final
	}
	return s.Middle
}
