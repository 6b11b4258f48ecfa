// Package money formats decimal amounts as Brazilian currency.
// The system handles a single locale; amounts always render as
// "R$ 1.234,56".
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders d with two decimal places in pt-BR notation.
func FormatBRL(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s[:len(s)-3]
	fracPart := s[len(s)-2:]

	// Thousand separators, right to left.
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
