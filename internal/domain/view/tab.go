// Package view derives what a purchase board shows: tab membership,
// order grouping and the filter pipeline. Everything here is pure.
package view

import (
	"time"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// Tab is one of the four workflow views.
type Tab string

const (
	TabPending  Tab = "pending"
	TabPurchase Tab = "purchase"
	TabReceipt  Tab = "receipt"
	TabDone     Tab = "done"
)

// Tabs lists the views in display order.
var Tabs = []Tab{TabPending, TabPurchase, TabReceipt, TabDone}

// IsValid reports whether t names a view.
func (t Tab) IsValid() bool {
	switch t {
	case TabPending, TabPurchase, TabReceipt, TabDone:
		return true
	}
	return false
}

// ParseTab returns the tab named s, defaulting to pending when s is empty.
func ParseTab(s string) (Tab, bool) {
	if s == "" {
		return TabPending, true
	}
	t := Tab(s)
	return t, t.IsValid()
}

// Membership is the set of views a line belongs to.
type Membership struct {
	Pending  bool
	Purchase bool
	Receipt  bool
	Done     bool
}

// Has reports membership in t.
func (m Membership) Has(t Tab) bool {
	switch t {
	case TabPending:
		return m.Pending
	case TabPurchase:
		return m.Purchase
	case TabReceipt:
		return m.Receipt
	case TabDone:
		return m.Done
	}
	return false
}

// Classify places a line into views as of today. Items approved, paid or
// received today stay visible in the view they are leaving until the day
// ends in today's location.
func Classify(line *entity.PurchaseLine, today time.Time) Membership {
	finalApproved := line.FinalManagerStatus == entity.ApprovalApproved
	advance := line.ProgressType == entity.ProgressAdvance

	var m Membership
	m.Done = true

	m.Pending = !finalApproved || IsSameDay(line.FinalApprovedAt, today)

	if line.PaymentCategory == entity.PaymentPurchaseRequest {
		unpaid := !line.PaymentCompleted || IsSameDay(line.PaymentCompletedAt, today)
		eligible := advance || (line.ProgressType == entity.ProgressNormal && finalApproved)
		m.Purchase = unpaid && eligible
	}

	m.Receipt = (finalApproved || advance) &&
		(!line.Received || IsSameDay(line.ReceivedAt, today))

	return m
}

// IsSameDay reports whether t falls on the same calendar date as today,
// both read in today's location. A nil t is never today.
func IsSameDay(t *time.Time, today time.Time) bool {
	if t == nil || t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(today.Location()).Date()
	y2, m2, d2 := today.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
