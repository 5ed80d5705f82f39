// Package money formats amounts for display.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var idPrinter = message.NewPrinter(language.Indonesian)

var hundred = decimal.NewFromInt(100)

// Rupiah formats an amount the way Indonesian shops print prices,
// e.g. "Rp 150.000,00". Digits are taken from the decimal itself so
// amounts past float64 precision stay exact.
func Rupiah(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.Sign() < 0 {
		sign = "-"
	}
	abs := rounded.Abs()
	whole := abs.Truncate(0)
	cents := abs.Sub(whole).Mul(hundred).IntPart()

	return fmt.Sprintf("Rp %s%s,%02d", sign, groupThousands(whole), cents)
}

func groupThousands(whole decimal.Decimal) string {
	n := whole.BigInt()
	if n.IsInt64() {
		return idPrinter.Sprint(number.Decimal(n.Int64()))
	}

	digits := n.String()
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
