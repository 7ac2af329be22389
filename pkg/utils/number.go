package utils

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var koPrinter = message.NewPrinter(language.Korean)

// FormatThousands renders d the way ko-KR locale formatting does:
// grouped integer digits and the fractional digits only when present,
// e.g. 1500 -> "1,500", 1234.50 -> "1,234.5".
func FormatThousands(d decimal.Decimal) string {
	neg := d.IsNegative()
	abs := d.Abs()

	intPart := abs.Truncate(0)
	out := koPrinter.Sprintf("%d", intPart.IntPart())

	if frac := abs.Sub(intPart); !frac.IsZero() {
		fs := frac.String() // "0.5"
		out += strings.TrimPrefix(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}
