package entity

import "time"

// Vendor is a supplier that orders are placed with.
type Vendor struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	BusinessNumber  string    `json:"business_number,omitempty"`
	Address         string    `json:"address,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Fax             string    `json:"fax,omitempty"`
	PaymentSchedule string    `json:"payment_schedule,omitempty"`
	Note            string    `json:"note,omitempty"`
	Contacts        []Contact `json:"contacts,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Contact is a person at a vendor.
type Contact struct {
	ID        int64     `json:"id"`
	VendorID  int64     `json:"vendor_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Position  string    `json:"position,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
