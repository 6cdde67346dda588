package compare

import (
	"math"

	"ah-arbitrage/internal/models"
)

// BuildRecord computes the unit and full-stack prices of an eligible pair.
func BuildRecord(source, target models.PriceRecord, entry models.CatalogEntry) models.ComparisonRecord {
	stack := ResolveStackSize(entry)
	diff := source.MarketValue - target.MarketValue

	return models.ComparisonRecord{
		ID:             source.ItemID,
		Name:           entry.Name,
		StackSize:      stack,
		APrice:         ToCurrency(source.MarketValue),
		AStackPrice:    ToCurrency(source.MarketValue * stack),
		BPrice:         ToCurrency(target.MarketValue),
		BStackPrice:    ToCurrency(target.MarketValue * stack),
		Diff:           diff,
		DiffPrice:      ToCurrency(abs(diff)),
		DiffStackPrice: ToCurrency(abs(diff) * stack),
		DiffPercentage: Percentage(source.MarketValue, target.MarketValue),
	}
}

// Percentage is the target price as a percentage of the source price.
// It is 0 when the source price is not positive.
func Percentage(source, target int64) float64 {
	if source <= 0 {
		return 0
	}
	return float64(target) / float64(source) * 100
}

// keep reports whether a built record belongs in the output.
func keep(r models.ComparisonRecord) bool {
	return !math.IsNaN(r.DiffPercentage) && r.DiffPercentage > 0
}
