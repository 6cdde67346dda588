package compare

import "ah-arbitrage/internal/models"

// Catalog is the item dictionary keyed by item id. It is read-only for the pipeline.
type Catalog map[int64]models.CatalogEntry

// Get returns the entry for id. ok is false for unknown items.
func (c Catalog) Get(id int64) (models.CatalogEntry, bool) {
	e, ok := c[id]
	return e, ok
}

// PriceIndex gives constant-time access to one market snapshot by item id.
type PriceIndex struct {
	byItem map[int64]models.PriceRecord
}

// BuildPriceIndex indexes records by item id. When an item appears more than
// once the last record wins.
func BuildPriceIndex(records []models.PriceRecord) PriceIndex {
	idx := PriceIndex{byItem: make(map[int64]models.PriceRecord, len(records))}
	for _, r := range records {
		idx.byItem[r.ItemID] = r
	}
	return idx
}

// Get returns the record for id, or nil if the market has no listing for it.
func (i PriceIndex) Get(id int64) *models.PriceRecord {
	r, ok := i.byItem[id]
	if !ok {
		return nil
	}
	return &r
}

// Len reports the number of distinct items in the index.
func (i PriceIndex) Len() int {
	return len(i.byItem)
}
