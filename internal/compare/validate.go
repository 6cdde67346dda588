package compare

import (
	"errors"
	"fmt"
	"strings"

	"ah-arbitrage/internal/models"
)

// ErrMalformedRecord marks a price record or catalog entry rejected at the boundary.
var ErrMalformedRecord = errors.New("malformed record")

// ValidatePrice checks one price record from the pricing API.
func ValidatePrice(r models.PriceRecord) error {
	switch {
	case r.ItemID <= 0:
		return fmt.Errorf("%w: item id %d", ErrMalformedRecord, r.ItemID)
	case r.MarketValue < 0, r.MinBuyout < 0, r.Historical < 0:
		return fmt.Errorf("%w: item %d has a negative price", ErrMalformedRecord, r.ItemID)
	case r.NumAuctions < 0, r.Quantity < 0:
		return fmt.Errorf("%w: item %d has a negative count", ErrMalformedRecord, r.ItemID)
	}
	return nil
}

// ValidateEntry checks one catalog entry. Entries without quality or class are
// not real game items and are rejected.
func ValidateEntry(e models.CatalogEntry) error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("%w: item %d has no name", ErrMalformedRecord, e.ItemID)
	case strings.TrimSpace(e.Quality) == "":
		return fmt.Errorf("%w: item %d has no quality", ErrMalformedRecord, e.ItemID)
	case strings.TrimSpace(e.Class) == "":
		return fmt.Errorf("%w: item %d has no class", ErrMalformedRecord, e.ItemID)
	}
	return nil
}

// SanitizePrices returns the valid records and the errors of the dropped ones.
func SanitizePrices(records []models.PriceRecord) ([]models.PriceRecord, []error) {
	valid := make([]models.PriceRecord, 0, len(records))
	var rejected []error
	for _, r := range records {
		if err := ValidatePrice(r); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, r)
	}
	return valid, rejected
}

// SanitizeCatalog returns a copy of c without malformed entries.
func SanitizeCatalog(c Catalog) (Catalog, []error) {
	valid := make(Catalog, len(c))
	var rejected []error
	for id, e := range c {
		if err := ValidateEntry(e); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid[id] = e
	}
	return valid, rejected
}
