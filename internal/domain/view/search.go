package view

import (
	"strings"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/utils"
)

// SearchText is the lower-cased haystack a free-text query is matched
// against. Prices and amounts appear both raw and thousands-separated so
// that "1500" and "1,500" both hit.
func SearchText(line *entity.PurchaseLine) string {
	parts := []string{
		line.OrderNumber,
		line.VendorName,
		line.ItemName,
		line.Specification,
		line.RequesterName,
		line.Remark,
		line.ProjectVendor,
		line.SalesOrderNumber,
		line.ProjectItem,
		line.UnitPrice.String(),
		utils.FormatThousands(line.UnitPrice),
		line.Amount.String(),
		utils.FormatThousands(line.Amount),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// MatchesQuery reports whether query is a case-insensitive substring of
// the line's search text. An empty query matches everything.
func MatchesQuery(line *entity.PurchaseLine, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(SearchText(line), q)
}
