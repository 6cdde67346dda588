package compare

import "github.com/shopspring/decimal"

// FormatPercentage renders a diff percentage with two decimals, e.g. "200.00%".
func FormatPercentage(p float64) string {
	return decimal.NewFromFloat(p).Abs().StringFixed(2) + "%"
}

// FormatMultiplier renders a diff percentage as a price multiplier, e.g. "x2.00".
func FormatMultiplier(p float64) string {
	return "x" + decimal.NewFromFloat(p).Abs().Div(decimal.NewFromInt(100)).StringFixed(2)
}
