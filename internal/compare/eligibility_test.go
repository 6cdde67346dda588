package compare

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"ah-arbitrage/internal/models"
)

func price(id, marketValue, minBuyout int64) models.PriceRecord {
	return models.PriceRecord{ItemID: id, MarketValue: marketValue, MinBuyout: minBuyout, NumAuctions: 50}
}

func entry(quality, class string) *models.CatalogEntry {
	return &models.CatalogEntry{ItemID: 1, Name: "Item", Quality: quality, Class: class}
}

func TestPolicy_IsEligible(t *testing.T) {
	p := DefaultPolicy()
	source := price(1, 5000, 5000)
	target := price(1, 5000, 5000)

	t.Run("eligible pair", func(t *testing.T) {
		assert.True(t, p.IsEligible(source, &target, entry("Common", "Consumable")))
		assert.True(t, p.IsEligible(source, &target, entry("RARE", "trade goods")))
	})

	t.Run("poor quality is never eligible", func(t *testing.T) {
		assert.False(t, p.IsEligible(source, &target, entry("Poor", "Consumable")))
		assert.False(t, p.IsEligible(source, &target, entry("poor", "Trade Goods")))
	})

	t.Run("missing catalog entry", func(t *testing.T) {
		assert.False(t, p.IsEligible(source, &target, nil))
	})

	t.Run("malformed catalog entry", func(t *testing.T) {
		assert.False(t, p.IsEligible(source, &target, entry("", "Consumable")))
		assert.False(t, p.IsEligible(source, &target, entry("Common", "")))
	})

	t.Run("class outside the allowed set", func(t *testing.T) {
		assert.False(t, p.IsEligible(source, &target, entry("Common", "Weapon")))
		assert.False(t, p.IsEligible(source, &target, entry("Common", "Reagent")))

		withReagent := p
		withReagent.AllowedClasses = []string{"trade goods", "consumable", "reagent"}
		assert.True(t, withReagent.IsEligible(source, &target, entry("Common", "Reagent")))
	})

	t.Run("missing target record", func(t *testing.T) {
		assert.False(t, p.IsEligible(source, nil, entry("Common", "Consumable")))
	})

	t.Run("liquidity floor", func(t *testing.T) {
		e := entry("Common", "Consumable")
		below := price(1, 900, 900)
		at := price(1, 1000, 1000)
		above := price(1, 1001, 1001)

		assert.False(t, p.IsEligible(source, &below, e))
		assert.False(t, p.IsEligible(source, &at, e))
		assert.True(t, p.IsEligible(source, &above, e))
	})

	t.Run("both markets must pass the stability ratio", func(t *testing.T) {
		noFloor := p
		noFloor.LiquidityFloor = 0
		e := entry("Common", "Consumable")

		stable := price(1, 1000, 1000)
		unstable := price(1, 1000, 3000)

		assert.False(t, noFloor.IsEligible(stable, &unstable, e))
		assert.False(t, noFloor.IsEligible(unstable, &stable, e))
		assert.True(t, noFloor.IsEligible(stable, &stable, e))
	})

	t.Run("ratio bounds are inclusive", func(t *testing.T) {
		e := entry("Common", "Consumable")
		t1 := price(1, 2000, 2000)

		low := price(1, 500, 1000)
		high := price(1, 1500, 1000)
		tooLow := price(1, 499, 1000)
		tooHigh := price(1, 1501, 1000)

		assert.True(t, p.IsEligible(low, &t1, e))
		assert.True(t, p.IsEligible(high, &t1, e))
		assert.False(t, p.IsEligible(tooLow, &t1, e))
		assert.False(t, p.IsEligible(tooHigh, &t1, e))
	})

	t.Run("zero min buyout is unstable", func(t *testing.T) {
		e := entry("Common", "Consumable")
		noBuyout := price(1, 5000, 0)
		assert.False(t, p.IsEligible(noBuyout, &target, e))
		assert.False(t, p.IsEligible(source, &noBuyout, e))
	})

	t.Run("min auctions", func(t *testing.T) {
		strict := p
		strict.MinAuctions = 20
		e := entry("Common", "Consumable")

		thin := target
		thin.NumAuctions = 20
		assert.False(t, strict.IsEligible(source, &thin, e))
		assert.True(t, strict.IsEligible(source, &target, e))
	})
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	cases := map[string]func(p *Policy){
		"no classes":         func(p *Policy) { p.AllowedClasses = nil },
		"blank class":        func(p *Policy) { p.AllowedClasses = []string{"consumable", " "} },
		"negative floor":     func(p *Policy) { p.LiquidityFloor = -1 },
		"negative threshold": func(p *Policy) { p.Threshold = -0.1 },
		"negative auctions":  func(p *Policy) { p.MinAuctions = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultPolicy()
			mutate(&p)
			err := p.Validate()
			assert.True(t, errors.Is(err, ErrInvalidPolicy), "got %v", err)
		})
	}
}
