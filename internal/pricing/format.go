package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const rupee = "₹"

// FormatINR renders an amount as whole rupees with Indian digit grouping,
// e.g. 1234567.5 becomes "₹12,34,568".
func FormatINR(amount float64) string {
	rounded := decimal.NewFromFloat(amount).Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + rupee + groupIndian(rounded.String())
}

// FormatWeight renders a gold weight in grams with two decimals.
func FormatWeight(grams float64) string {
	return decimal.NewFromFloat(grams).StringFixed(2) + "g"
}

// FormatCarat renders a diamond weight with two decimals.
func FormatCarat(carat float64) string {
	return decimal.NewFromFloat(carat).StringFixed(2) + "ct"
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
