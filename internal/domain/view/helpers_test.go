package view

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyeunung/hanslwebapp-sub000/internal/domain/entity"
)

var seoul = time.FixedZone("KST", 9*60*60)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, seoul)
}

func ptr(t time.Time) *time.Time { return &t }

func newLine(order string, lineNo int, amount int64) *entity.PurchaseLine {
	return &entity.PurchaseLine{
		OrderNumber:         order,
		LineNumber:          lineNo,
		ItemName:            "item",
		Quantity:            1,
		UnitPrice:           decimal.NewFromInt(amount),
		Amount:              decimal.NewFromInt(amount),
		RequesterName:       "kim",
		RequestDate:         at(2025, time.March, 3, 10),
		ProgressType:        entity.ProgressNormal,
		PaymentCategory:     entity.PaymentOrder,
		MiddleManagerStatus: entity.ApprovalPending,
		FinalManagerStatus:  entity.ApprovalPending,
	}
}
