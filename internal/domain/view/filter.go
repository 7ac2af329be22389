package view

import (
	"time"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// EmployeeAll disables the employee filter.
const EmployeeAll = "all"

// Period is an inclusive range of calendar dates.
type Period struct {
	From time.Time
	To   time.Time
}

// DefaultPeriod runs from January 1st of today's year through today.
func DefaultPeriod(today time.Time) Period {
	return Period{
		From: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()),
		To:   today,
	}
}

// Contains reports whether t falls on a date inside the period. A zero
// bound is open.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && dateOf(t.In(p.From.Location())).Before(dateOf(p.From)) {
		return false
	}
	if !p.To.IsZero() && dateOf(t.In(p.To.Location())).After(dateOf(p.To)) {
		return false
	}
	return true
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Criteria drives the filter pipeline.
type Criteria struct {
	Tab      Tab
	Employee string // requester name; "" or EmployeeAll disables
	Query    string
	Period   Period
	Today    time.Time

	// PendingPurchaseRequestOnly narrows the pending tab to
	// purchase-request orders.
	PendingPurchaseRequestOnly bool
}

// Filter runs employee, search, tab and period stages in that order and
// returns the surviving lines in input order.
func Filter(lines []*entity.PurchaseLine, c Criteria) []*entity.PurchaseLine {
	out := make([]*entity.PurchaseLine, 0, len(lines))
	for _, l := range lines {
		if !matchesEmployee(l, c.Employee) {
			continue
		}
		if !MatchesQuery(l, c.Query) {
			continue
		}
		if !inTab(l, c) {
			continue
		}
		if !c.Period.Contains(l.RequestDate) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// CountOrders returns the number of distinct orders that pass the
// employee and period stages and c.Tab's predicate. The search query is
// not applied.
func CountOrders(lines []*entity.PurchaseLine, c Criteria) int {
	orders := make(map[string]struct{})
	for _, l := range lines {
		if !matchesEmployee(l, c.Employee) || !c.Period.Contains(l.RequestDate) {
			continue
		}
		if inTab(l, c) {
			orders[l.OrderNumber] = struct{}{}
		}
	}
	return len(orders)
}

func matchesEmployee(l *entity.PurchaseLine, employee string) bool {
	if employee == "" || employee == EmployeeAll {
		return true
	}
	return l.RequesterName == employee
}

func inTab(l *entity.PurchaseLine, c Criteria) bool {
	if !Classify(l, c.Today).Has(c.Tab) {
		return false
	}
	if c.Tab == TabPending && c.PendingPurchaseRequestOnly {
		return l.PaymentCategory == entity.PaymentPurchaseRequest
	}
	return true
}
