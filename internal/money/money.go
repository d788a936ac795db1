// Package money holds the decimal rounding and formatting rules shared by
// checks, receipts and list filters.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Places is the number of fractional digits carried by monetary amounts.
	Places = 2
	// QuantityPlaces is the number of fractional digits carried by quantities.
	QuantityPlaces = 3
)

// Zero is 0.00.
var Zero = decimal.New(0, -Places)

// Quantize rounds d to two fractional digits, ties away from zero (0.005 -> 0.01).
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FitsPlaces reports whether d has no significant digits beyond the given number
// of fractional places.
func FitsPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Format renders d with a fixed number of fractional digits and a comma between
// thousands groups, e.g. 1234567.891 -> "1,234,567.89".
func Format(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	grouped := group(intPart)
	if hasFrac {
		return sign + grouped + "." + frac
	}
	return sign + grouped
}

// FormatPlain renders d with a fixed number of fractional digits and no grouping.
func FormatPlain(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
