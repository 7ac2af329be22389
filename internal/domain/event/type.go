package event

// Type identifies the type of domain event
type Type string

const (
	TypeOrderCreated          Type = "order.created"
	TypeOrderVerified         Type = "order.verified"
	TypeOrderApproved         Type = "order.approved"
	TypeOrderRejected         Type = "order.rejected"
	TypeOrderReset            Type = "order.reset"
	TypeOrderEdited           Type = "order.edited"
	TypeOrderDeleted          Type = "order.deleted"
	TypeOrderReceived         Type = "order.received"
	TypeOrderPaymentCompleted Type = "order.payment_completed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
// AllTypes lists every order event type in lifecycle order
func AllTypes() []Type {
	return []Type{
		TypeOrderCreated,
		TypeOrderVerified,
		TypeOrderApproved,
		TypeOrderRejected,
		TypeOrderReset,
		TypeOrderEdited,
		TypeOrderDeleted,
		TypeOrderReceived,
		TypeOrderPaymentCompleted,
	}
}

func (t Type) IsValid() bool {
	switch t {
	case TypeOrderCreated,
		TypeOrderVerified,
		TypeOrderApproved,
		TypeOrderRejected,
		TypeOrderReset,
		TypeOrderEdited,
		TypeOrderDeleted,
		TypeOrderReceived,
		TypeOrderPaymentCompleted:
		return true
	default:
		return false
	}
}
