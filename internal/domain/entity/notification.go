package entity

import "time"

// OrderNotification records one chat message sent (or attempted) about an
// order. Records are removed together with the order.
type OrderNotification struct {
	ID           int64      `json:"id"`
	OrderNumber  string     `json:"order_number"`
	Kind         string     `json:"kind"`
	Recipient    string     `json:"recipient"`
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
