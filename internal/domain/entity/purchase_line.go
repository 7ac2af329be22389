package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLine is one item on one purchase order. All lines sharing an
// OrderNumber carry identical order-level fields.
type PurchaseLine struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	LineNumber  int    `json:"line_number"`

	// Item-level fields
	ItemName      string          `json:"item_name"`
	Specification string          `json:"specification"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	Remark        string          `json:"remark"`
	Link          string          `json:"link,omitempty"`

	// Order-level fields
	Currency            string          `json:"currency"`
	RequesterName       string          `json:"requester_name"`
	VendorID            int64           `json:"vendor_id"`
	VendorName          string          `json:"vendor_name"`
	ContactID           *int64          `json:"contact_id,omitempty"`
	RequestDate         time.Time       `json:"request_date"`
	DeliveryRequestDate *time.Time      `json:"delivery_request_date,omitempty"`
	ProgressType        ProgressType    `json:"progress_type"`
	PaymentCategory     PaymentCategory `json:"payment_category"`
	ProjectVendor       string          `json:"project_vendor,omitempty"`
	SalesOrderNumber    string          `json:"sales_order_number,omitempty"`
	ProjectItem         string          `json:"project_item,omitempty"`

	MiddleManagerStatus ApprovalStatus `json:"middle_manager_status"`
	FinalManagerStatus  ApprovalStatus `json:"final_manager_status"`
	FinalApprovedAt     *time.Time     `json:"final_approved_at,omitempty"`

	PaymentCompleted   bool       `json:"payment_completed"`
	PaymentCompletedAt *time.Time `json:"payment_completed_at,omitempty"`
	Received           bool       `json:"received"`
	ReceivedAt         *time.Time `json:"received_at,omitempty"`
	PODownloaded       bool       `json:"po_downloaded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineAmount returns quantity × unit price.
func LineAmount(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// MoneyScale is the number of decimal places stored for prices and amounts.
const MoneyScale = 2

// FitsMoneyScale reports whether d has no digits past MoneyScale.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// OrderFields is the set of order-level columns an update may touch. Nil
// fields are left unchanged. The Clear* switches set the matching column
// to NULL.
type OrderFields struct {
	MiddleManagerStatus *ApprovalStatus
	FinalManagerStatus  *ApprovalStatus
	FinalApprovedAt     *time.Time
	ClearFinalApproved  bool

	PaymentCompleted        *bool
	PaymentCompletedAt      *time.Time
	ClearPaymentCompletedAt bool
	Received                *bool
	ReceivedAt              *time.Time
	ClearReceivedAt         bool
	PODownloaded            *bool

	DeliveryRequestDate *time.Time
	VendorID            *int64
	ContactID           *int64
	ClearContact        bool
}

// IsEmpty reports whether the update would change nothing.
func (f OrderFields) IsEmpty() bool {
	return f.MiddleManagerStatus == nil && f.FinalManagerStatus == nil &&
		f.FinalApprovedAt == nil && !f.ClearFinalApproved &&
		f.PaymentCompleted == nil && f.PaymentCompletedAt == nil && !f.ClearPaymentCompletedAt &&
		f.Received == nil && f.ReceivedAt == nil && !f.ClearReceivedAt &&
		f.PODownloaded == nil && f.DeliveryRequestDate == nil &&
		f.VendorID == nil && f.ContactID == nil && !f.ClearContact
}

// LineFields is the set of item-level columns an edit may touch.
type LineFields struct {
	ItemName      *string
	Specification *string
	Quantity      *int
	UnitPrice     *decimal.Decimal
	Amount        *decimal.Decimal
	Remark        *string
	Link          *string
}

// IsEmpty reports whether the update would change nothing.
func (f LineFields) IsEmpty() bool {
	return f.ItemName == nil && f.Specification == nil && f.Quantity == nil &&
		f.UnitPrice == nil && f.Amount == nil && f.Remark == nil && f.Link == nil
}

// LineFilter narrows a line query. Zero values mean "no restriction".
type LineFilter struct {
	OrderNumbers  []string
	RequesterName string
	From          *time.Time
	To            *time.Time
}
