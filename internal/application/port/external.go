package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/view"
)

// MessageSender delivers a plain text chat message to one recipient. The
// recipient is a chat user id or an email address.
type MessageSender interface {
	SendText(ctx context.Context, recipient, text string) error
}

// OrderSheet is what the order spreadsheet is rendered from.
type OrderSheet struct {
	CompanyName string
	Header      *entity.PurchaseLine
	Lines       []*entity.PurchaseLine
	Vendor      *entity.Vendor
	Contact     *entity.Contact
	Total       decimal.Decimal
}

// BoardSheet is a snapshot of board rows to export.
type BoardSheet struct {
	Title string
	Rows  []view.Row
}

// SheetRenderer produces spreadsheet files.
type SheetRenderer interface {
	RenderOrder(sheet *OrderSheet) ([]byte, error)
	RenderBoard(sheet *BoardSheet) ([]byte, error)
}
