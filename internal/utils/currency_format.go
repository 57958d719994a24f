package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatWithPrecision formats an amount with the given precision.
// Example: amount 12.3456 with precision 2 returns "12.35"
func FormatWithPrecision(amount decimal.Decimal, precision int) string {
	return amount.StringFixed(int32(precision))
}

// FormatDollars formats an amount as dollars with two decimals and
// thousands separators, e.g. 1234.5 -> "$1,234.50", -3 -> "$-3.00".
func FormatDollars(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	return "$" + sign + groupThousands(whole) + "." + frac
}

// FormatPlainDollars formats the absolute value without separators, e.g. "$1234.50".
func FormatPlainDollars(amount decimal.Decimal) string {
	return "$" + amount.Abs().StringFixed(2)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
