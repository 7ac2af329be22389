package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerVerify  Trigger = "verify"
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerReset   Trigger = "reset"
)

var validTriggers = map[Trigger]bool{
	TriggerVerify:  true,
	TriggerApprove: true,
	TriggerReject:  true,
	TriggerReset:   true,
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true if the trigger is one of the approval actions
func (t Trigger) IsValid() bool {
	return validTriggers[t]
}
