// Package service holds the order use cases: approval transitions, order
// editing, the board read model, exports, vendors and notifications.
package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Clock yields the current instant in the business location. "Today" for
// tab classification is a calendar date in that location.
type Clock struct {
	Location *time.Location
	now      func() time.Time
}

// NewClock creates a clock for loc; a nil loc means UTC
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, now: time.Now}
}

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return Clock{Location: t.Location(), now: func() time.Time { return t }}
}

// Now returns the current instant in the clock's location
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().In(c.location())
	}
	return c.now().In(c.location())
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// orderTotal sums the line amounts
func orderTotal(lines []*entity.PurchaseLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// orderPayload summarises an order for event handlers
func orderPayload(lines []*entity.PurchaseLine) map[string]interface{} {
	if len(lines) == 0 {
		return nil
	}
	h := lines[0]
	return map[string]interface{}{
		event.KeyRequester: h.RequesterName,
		event.KeyItemName:  h.ItemName,
		event.KeyVendor:    h.VendorName,
		event.KeyLineCount: len(lines),
		event.KeyTotal:     orderTotal(lines).String(),
		event.KeyCurrency:  h.Currency,
	}
}

// applyOrderFields mirrors a successful UpdateOrder onto loaded lines
func applyOrderFields(lines []*entity.PurchaseLine, f entity.OrderFields, now time.Time) {
	for _, l := range lines {
		if f.MiddleManagerStatus != nil {
			l.MiddleManagerStatus = *f.MiddleManagerStatus
		}
		if f.FinalManagerStatus != nil {
			l.FinalManagerStatus = *f.FinalManagerStatus
		}
		if f.ClearFinalApproved {
			l.FinalApprovedAt = nil
		} else if f.FinalApprovedAt != nil {
			l.FinalApprovedAt = copyTime(f.FinalApprovedAt)
		}
		if f.PaymentCompleted != nil {
			l.PaymentCompleted = *f.PaymentCompleted
		}
		if f.ClearPaymentCompletedAt {
			l.PaymentCompletedAt = nil
		} else if f.PaymentCompletedAt != nil {
			l.PaymentCompletedAt = copyTime(f.PaymentCompletedAt)
		}
		if f.Received != nil {
			l.Received = *f.Received
		}
		if f.ClearReceivedAt {
			l.ReceivedAt = nil
		} else if f.ReceivedAt != nil {
			l.ReceivedAt = copyTime(f.ReceivedAt)
		}
		if f.PODownloaded != nil {
			l.PODownloaded = *f.PODownloaded
		}
		if f.DeliveryRequestDate != nil {
			l.DeliveryRequestDate = copyTime(f.DeliveryRequestDate)
		}
		if f.VendorID != nil {
			l.VendorID = *f.VendorID
		}
		if f.ClearContact {
			l.ContactID = nil
		} else if f.ContactID != nil {
			l.ContactID = f.ContactID
		}
		l.UpdatedAt = now
	}
}

func copyTime(t *time.Time) *time.Time {
	v := *t
	return &v
}

func ptr[T any](v T) *T {
	return &v
}
