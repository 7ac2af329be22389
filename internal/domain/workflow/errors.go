package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when the caller may not fire the trigger
	ErrGuardFailed = errors.New("guard condition failed")
)

// TransitionError reports a trigger the current state refuses. Gate is the
// column holding it back, empty when no single gate is to blame.
type TransitionError struct {
	Trigger Trigger
	From    State
	Gate    Gate
}

func (e *TransitionError) Error() string {
	if e.Gate == "" {
		return fmt.Sprintf("%v: %s from %s", ErrInvalidTransition, e.Trigger, e.From)
	}
	return fmt.Sprintf("%v: %s from %s, %s gate is %s",
		ErrInvalidTransition, e.Trigger, e.From, e.Gate, e.From.Status(e.Gate))
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
