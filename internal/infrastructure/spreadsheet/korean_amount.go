package spreadsheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	koreanDigits   = []string{"", "일", "이", "삼", "사", "오", "육", "칠", "팔", "구"}
	koreanUnits    = []string{"", "십", "백", "천"}
	koreanBigUnits = []string{"", "만", "억", "조", "경"}
)

// AmountInWords spells a won amount the way purchase orders print it, e.g.
// 1,250,000 becomes "일금 일백이십오만원정". Fractions are rounded to whole won.
func AmountInWords(amount decimal.Decimal) string {
	won := amount.Abs().Round(0).IntPart()
	if won == 0 {
		return "일금 영원정"
	}
	return "일금 " + koreanInteger(won) + "원정"
}

// koreanInteger reads num in groups of four digits, each followed by its
// big unit. Empty groups are skipped entirely.
func koreanInteger(num int64) string {
	var groups []string
	for big := 0; num > 0 && big < len(koreanBigUnits); big++ {
		part := int(num % 10000)
		num /= 10000
		if part == 0 {
			continue
		}
		groups = append(groups, koreanGroup(part)+koreanBigUnits[big])
	}

	var sb strings.Builder
	for i := len(groups) - 1; i >= 0; i-- {
		sb.WriteString(groups[i])
	}
	return sb.String()
}

// koreanGroup converts 1..9999
func koreanGroup(part int) string {
	var sb strings.Builder
	for unit := 3; unit >= 0; unit-- {
		pow := 1
		for i := 0; i < unit; i++ {
			pow *= 10
		}
		digit := part / pow % 10
		if digit == 0 {
			continue
		}
		sb.WriteString(koreanDigits[digit])
		sb.WriteString(koreanUnits[unit])
	}
	return sb.String()
}
