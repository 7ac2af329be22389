package entity

// ApprovalStatus is the value of one approval gate on an order.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsValid reports whether s is one of the known gate values.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ProgressType distinguishes expedited orders from ones gated on final approval.
type ProgressType string

const (
	ProgressNormal  ProgressType = "normal"
	ProgressAdvance ProgressType = "advance"
)

// IsValid reports whether p is a known progress type.
func (p ProgressType) IsValid() bool {
	return p == ProgressNormal || p == ProgressAdvance
}

// PaymentCategory is how an order gets paid for.
type PaymentCategory string

const (
	PaymentOrder           PaymentCategory = "order"
	PaymentPurchaseRequest PaymentCategory = "purchase_request"
	PaymentOnSite          PaymentCategory = "on_site_payment"
)

// IsValid reports whether c is a known payment category.
func (c PaymentCategory) IsValid() bool {
	switch c {
	case PaymentOrder, PaymentPurchaseRequest, PaymentOnSite:
		return true
	}
	return false
}

// DefaultCurrency is used when a request does not name one.
const DefaultCurrency = "KRW"

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification kinds
const (
	NotificationKindSubmitted = "submitted"
	NotificationKindVerified  = "verified"
	NotificationKindApproved  = "approved"
	NotificationKindRejected  = "rejected"
)

// CompletionKind selects one of the flag + timestamp pairs on an order.
type CompletionKind string

const (
	CompletionReceipt CompletionKind = "receipt"
	CompletionPayment CompletionKind = "payment"
)
