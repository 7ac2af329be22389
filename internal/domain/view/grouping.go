package view

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

// OrderGroup is the lines of one order, sorted by line number. The first
// line is the header that order-level fields are read from.
type OrderGroup struct {
	OrderNumber string
	Lines       []*entity.PurchaseLine
}

// Header returns the representative line, or nil for an empty group.
func (g OrderGroup) Header() *entity.PurchaseLine {
	if len(g.Lines) == 0 {
		return nil
	}
	return g.Lines[0]
}

// Count returns the number of lines.
func (g OrderGroup) Count() int {
	return len(g.Lines)
}

// Total sums the line amounts. It is computed on every call.
func (g OrderGroup) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Row is one display row.
type Row struct {
	Line          *entity.PurchaseLine `json:"line"`
	IsGroupHeader bool                 `json:"is_group_header"`
	GroupSize     int                  `json:"group_size,omitempty"`
	IsSubItem     bool                 `json:"is_sub_item"`
	IsLastSubItem bool                 `json:"is_last_sub_item"`
}

type span struct {
	start, end int
}

// Grouping partitions lines by order number. Lines live in one arena slice
// with each order occupying a contiguous span, in order of first
// appearance in the input.
type Grouping struct {
	arena []*entity.PurchaseLine
	order []string
	index map[string]span
}

// Group builds a Grouping. The input slice is not modified.
func Group(lines []*entity.PurchaseLine) *Grouping {
	g := &Grouping{
		arena: make([]*entity.PurchaseLine, len(lines)),
		index: make(map[string]span),
	}

	counts := make(map[string]int)
	for _, l := range lines {
		if _, seen := counts[l.OrderNumber]; !seen {
			g.order = append(g.order, l.OrderNumber)
		}
		counts[l.OrderNumber]++
	}

	offset := 0
	for _, num := range g.order {
		g.index[num] = span{start: offset, end: offset}
		offset += counts[num]
	}

	for _, l := range lines {
		sp := g.index[l.OrderNumber]
		g.arena[sp.end] = l
		sp.end++
		g.index[l.OrderNumber] = sp
	}

	for _, num := range g.order {
		members := g.members(num)
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].LineNumber < members[j].LineNumber
		})
	}

	return g
}

func (g *Grouping) members(orderNumber string) []*entity.PurchaseLine {
	sp, ok := g.index[orderNumber]
	if !ok {
		return nil
	}
	return g.arena[sp.start:sp.end:sp.end]
}

// Len returns the number of orders.
func (g *Grouping) Len() int {
	return len(g.order)
}

// Get returns the group for one order number.
func (g *Grouping) Get(orderNumber string) (OrderGroup, bool) {
	members := g.members(orderNumber)
	if members == nil {
		return OrderGroup{}, false
	}
	return OrderGroup{OrderNumber: orderNumber, Lines: members}, true
}

// Groups returns every group in first-appearance order.
func (g *Grouping) Groups() []OrderGroup {
	out := make([]OrderGroup, 0, len(g.order))
	for _, num := range g.order {
		out = append(out, OrderGroup{OrderNumber: num, Lines: g.members(num)})
	}
	return out
}

// Rows flattens the grouping into display rows: a header per order,
// followed by its remaining lines as sub-rows.
func (g *Grouping) Rows() []Row {
	rows := make([]Row, 0, len(g.arena))
	for _, num := range g.order {
		members := g.members(num)
		rows = append(rows, Row{Line: members[0], IsGroupHeader: true, GroupSize: len(members)})
		for i, l := range members[1:] {
			rows = append(rows, Row{
				Line:          l,
				IsSubItem:     true,
				IsLastSubItem: i == len(members)-2,
			})
		}
	}
	return rows
}

// Lines returns all lines, grouped and sorted.
func (g *Grouping) Lines() []*entity.PurchaseLine {
	return append([]*entity.PurchaseLine(nil), g.arena...)
}
