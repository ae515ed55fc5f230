package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupeeSymbol = "₹"

// FormatINR renders an amount with the rupee symbol and Indian digit grouping,
// e.g. 12345678.9 becomes "₹1,23,45,678.90".
func FormatINR(amount float64) string {
	return rupeeSymbol + GroupIndian(decimal.NewFromFloat(amount))
}

// GroupIndian formats a decimal with two places, grouping the integer part as
// 3 digits followed by groups of 2.
func GroupIndian(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, frac, _ := strings.Cut(fixed, ".")
	if len(intPart) <= 3 {
		return sign + intPart + "." + frac
	}

	head := intPart[:len(intPart)-3]
	tail := intPart[len(intPart)-3:]

	groups := make([]string, 0, len(head)/2+1)
	if len(head)%2 == 1 {
		groups = append(groups, head[:1])
		head = head[1:]
	}
	for i := 0; i < len(head); i += 2 {
		groups = append(groups, head[i:i+2])
	}
	groups = append(groups, tail)

	return sign + strings.Join(groups, ",") + "." + frac
}
