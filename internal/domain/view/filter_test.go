package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// Scenario E
func TestMatchesQuery_FormattedAndRawPrice(t *testing.T) {
	l := newLine("PO-9", 1, 0)
	l.UnitPrice = decimal.NewFromInt(1500)
	l.Amount = decimal.NewFromInt(3000)
	l.Quantity = 2

	assert.True(t, MatchesQuery(l, "1,500"))
	assert.True(t, MatchesQuery(l, "1500"))
	assert.True(t, MatchesQuery(l, "3,000"))
	assert.False(t, MatchesQuery(l, "2,500"))
}

func TestMatchesQuery_Fields(t *testing.T) {
	l := newLine("F20250303_001", 1, 100)
	l.VendorName = "Hansl Trading"
	l.ItemName = "Resistor"
	l.Specification = "10kΩ 1%"
	l.Remark = "urgent"
	l.ProjectVendor = "Samsung"
	l.SalesOrderNumber = "SO-77"
	l.ProjectItem = "Line 3"

	for _, q := range []string{"", "  ", "f20250303", "hansl", "RESISTOR", "10kω", "KIM", "Urgent", "samsung", "so-77", "line 3"} {
		assert.True(t, MatchesQuery(l, q), q)
	}
	assert.False(t, MatchesQuery(l, "capacitor"))
}

func TestPeriod_Contains(t *testing.T) {
	p := Period{From: at(2025, time.March, 1, 0), To: at(2025, time.March, 10, 8)}

	assert.True(t, p.Contains(at(2025, time.March, 1, 0)))
	assert.True(t, p.Contains(at(2025, time.March, 10, 23)), "upper bound is a whole day")
	assert.False(t, p.Contains(at(2025, time.February, 28, 23)))
	assert.False(t, p.Contains(at(2025, time.March, 11, 0)))
	assert.True(t, Period{}.Contains(at(1999, time.January, 1, 0)))
}

func TestDefaultPeriod(t *testing.T) {
	today := at(2025, time.June, 15, 13)
	p := DefaultPeriod(today)

	assert.Equal(t, at(2025, time.January, 1, 0), p.From)
	assert.Equal(t, today, p.To)
}

func boardFixture() []*entity.PurchaseLine {
	mine := newLine("A", 1, 100)

	theirs := newLine("B", 1, 200)
	theirs.RequesterName = "lee"
	theirs.ItemName = "Cable"

	approved := newLine("C", 1, 300)
	approved.MiddleManagerStatus = entity.ApprovalApproved
	approved.FinalManagerStatus = entity.ApprovalApproved
	approved.FinalApprovedAt = ptr(at(2025, time.March, 4, 9))

	old := newLine("D", 1, 400)
	old.RequestDate = at(2024, time.December, 30, 9)

	purchaseReq := newLine("E", 1, 500)
	purchaseReq.PaymentCategory = entity.PaymentPurchaseRequest
	purchaseReq.RequesterName = "lee"

	purchaseReq2 := newLine("E", 2, 600)
	purchaseReq2.PaymentCategory = entity.PaymentPurchaseRequest
	purchaseReq2.RequesterName = "lee"

	return []*entity.PurchaseLine{mine, theirs, approved, old, purchaseReq, purchaseReq2}
}

func orderNumbers(lines []*entity.PurchaseLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.OrderNumber+"/"+string(rune('0'+l.LineNumber)))
	}
	return out
}

func TestFilter_Pipeline(t *testing.T) {
	today := at(2025, time.March, 10, 9)
	base := Criteria{Tab: TabPending, Today: today, Period: DefaultPeriod(today)}

	tests := []struct {
		name   string
		mutate func(c *Criteria)
		want   []string
	}{
		{"all employees", func(c *Criteria) { c.Employee = EmployeeAll }, []string{"A/1", "B/1", "E/1", "E/2"}},
		{"self only", func(c *Criteria) { c.Employee = "kim" }, []string{"A/1"}},
		{"search", func(c *Criteria) { c.Query = "cable" }, []string{"B/1"}},
		{"done tab", func(c *Criteria) { c.Tab = TabDone }, []string{"A/1", "B/1", "C/1", "E/1", "E/2"}},
		{"open period", func(c *Criteria) { c.Tab = TabDone; c.Period = Period{} }, []string{"A/1", "B/1", "C/1", "D/1", "E/1", "E/2"}},
		{"consumable pending restriction", func(c *Criteria) { c.PendingPurchaseRequestOnly = true }, []string{"E/1", "E/2"}},
		{"restriction ignored off pending", func(c *Criteria) { c.Tab = TabReceipt; c.PendingPurchaseRequestOnly = true }, []string{"C/1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Equal(t, tt.want, orderNumbers(Filter(boardFixture(), c)))
		})
	}
}

func TestCountOrders(t *testing.T) {
	today := at(2025, time.March, 10, 9)
	c := Criteria{Today: today, Period: DefaultPeriod(today), Query: "does-not-matter"}

	c.Tab = TabPending
	assert.Equal(t, 3, CountOrders(boardFixture(), c), "E counts once")

	c.Tab = TabDone
	assert.Equal(t, 4, CountOrders(boardFixture(), c), "D is outside the period")

	c.Employee = "lee"
	assert.Equal(t, 2, CountOrders(boardFixture(), c))

	c.Tab = TabReceipt
	c.Employee = EmployeeAll
	assert.Equal(t, 1, CountOrders(boardFixture(), c))
}
