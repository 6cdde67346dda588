package compare

import "ah-arbitrage/internal/models"

const (
	copperPerSilver = 100
	copperPerGold   = 10_000
)

// ToCurrency splits a copper amount into gold, silver and copper.
//
// Only non-negative amounts are meaningful; differences must be passed as
// magnitudes. A negative amount follows Go's truncated division, so every
// denomination comes out non-positive.
func ToCurrency(total int64) models.Currency {
	rest := total % copperPerGold
	return models.Currency{
		Gold:   total / copperPerGold,
		Silver: rest / copperPerSilver,
		Copper: rest % copperPerSilver,
		Total:  total,
	}
}

// CurrencyFromParts is the inverse of ToCurrency, used for price filters
// entered as separate gold, silver and copper fields.
func CurrencyFromParts(gold, silver, copper int64) models.Currency {
	return ToCurrency(gold*copperPerGold + silver*copperPerSilver + copper)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
