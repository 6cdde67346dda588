// Package compare turns two auction house snapshots and the item catalog into
// a ranked list of price comparisons. Everything here is pure: no I/O, no
// state kept between calls.
package compare

import "ah-arbitrage/internal/models"

// Compare runs the whole pipeline: index the target market, keep the eligible
// source items, build one record per item and rank the result.
//
// The only error is an invalid policy. Items missing from the catalog or the
// target market are skipped.
func Compare(source, target []models.PriceRecord, catalog Catalog, policy Policy) ([]models.ComparisonRecord, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	targets := BuildPriceIndex(target)
	out := make([]models.ComparisonRecord, 0)

	for _, s := range source {
		var entry *models.CatalogEntry
		if e, ok := catalog.Get(s.ItemID); ok {
			entry = &e
		}
		t := targets.Get(s.ItemID)

		if !policy.IsEligible(s, t, entry) {
			continue
		}

		r := BuildRecord(s, *t, *entry)
		if keep(r) {
			out = append(out, r)
		}
	}

	Rank(out)
	return out, nil
}
