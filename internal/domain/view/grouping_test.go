package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// Scenario A
func TestGroup_TwoLineOrder(t *testing.T) {
	g := Group([]*entity.PurchaseLine{
		newLine("PO-1", 1, 1000),
		newLine("PO-1", 2, 2000),
	})

	rows := g.Rows()
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsGroupHeader)
	assert.Equal(t, 2, rows[0].GroupSize)
	assert.True(t, rows[1].IsSubItem)
	assert.True(t, rows[1].IsLastSubItem)

	group, ok := g.Get("PO-1")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(3000).Equal(group.Total()))
	assert.Equal(t, 2, group.Count())
	assert.Equal(t, 1, group.Header().LineNumber)
}

func TestGroup_PreservesFirstAppearanceAndSortsLines(t *testing.T) {
	lines := []*entity.PurchaseLine{
		newLine("B", 3, 30),
		newLine("A", 2, 20),
		newLine("B", 1, 10),
		newLine("C", 1, 5),
		newLine("A", 1, 10),
		newLine("B", 2, 20),
	}

	g := Group(lines)
	assert.Equal(t, 3, g.Len())

	var got []string
	for _, row := range g.Rows() {
		got = append(got, row.Line.OrderNumber+"-"+string(rune('0'+row.Line.LineNumber)))
	}
	assert.Equal(t, []string{"B-1", "B-2", "B-3", "A-1", "A-2", "C-1"}, got)

	rows := g.Rows()
	assert.Equal(t, 3, rows[0].GroupSize)
	assert.False(t, rows[1].IsLastSubItem)
	assert.True(t, rows[2].IsLastSubItem)
	assert.Equal(t, 1, rows[5].GroupSize)
	assert.False(t, rows[5].IsSubItem)

	// input untouched
	assert.Equal(t, "B", lines[0].OrderNumber)
	assert.Equal(t, 3, lines[0].LineNumber)
}

func TestGroup_Idempotent(t *testing.T) {
	lines := []*entity.PurchaseLine{
		newLine("X", 2, 1),
		newLine("Y", 1, 2),
		newLine("X", 1, 3),
		newLine("Z", 4, 4),
		newLine("Y", 2, 5),
	}

	first := Group(lines).Rows()

	flat := make([]*entity.PurchaseLine, 0, len(first))
	for _, r := range first {
		flat = append(flat, r.Line)
	}
	second := Group(flat).Rows()

	assert.Equal(t, first, second)
}

func TestGroup_TotalsPartitionAmounts(t *testing.T) {
	lines := []*entity.PurchaseLine{
		newLine("A", 1, 100),
		newLine("B", 1, 250),
		newLine("A", 2, 300),
		newLine("C", 1, 7),
		newLine("B", 2, 50),
	}

	g := Group(lines)

	want := map[string]int64{"A": 400, "B": 300, "C": 7}
	sum := decimal.Zero
	for _, grp := range g.Groups() {
		assert.True(t, decimal.NewFromInt(want[grp.OrderNumber]).Equal(grp.Total()), grp.OrderNumber)
		sum = sum.Add(grp.Total())
	}

	all := decimal.Zero
	for _, l := range lines {
		all = all.Add(l.Amount)
	}
	assert.True(t, all.Equal(sum))
}

func TestGroup_Empty(t *testing.T) {
	g := Group(nil)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Rows())

	_, ok := g.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, OrderGroup{}.Header())
}
