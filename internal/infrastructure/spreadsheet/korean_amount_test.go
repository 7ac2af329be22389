package spreadsheet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "일금 영원정"},
		{"7", "일금 칠원정"},
		{"10", "일금 일십원정"},
		{"1005", "일금 일천오원정"},
		{"10000", "일금 일만원정"},
		{"1250000", "일금 일백이십오만원정"},
		{"100000001", "일금 일억일원정"},
		{"300020000", "일금 삼억이만원정"},
		{"2000000000000", "일금 이조원정"},
		{"1499.6", "일금 일천오백원정"},
		{"0.4", "일금 영원정"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountInWords(decimal.RequireFromString(tt.amount)))
		})
	}
}
