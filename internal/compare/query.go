package compare

import (
	"sort"
	"strings"

	"ah-arbitrage/internal/models"
)

// Query narrows a ranked result for display. Zero values disable a filter.
type Query struct {
	Search        string // case-insensitive substring of the item name
	StackSize     int64  // exact stack size
	MinPrice      int64  // minimum source unit price in copper
	MaxSourceGold int64  // buy limit: maximum source unit price in whole gold
	Limit         int    // keep at most Limit records
}

// Apply returns the records matching q in their original order.
// The input slice is not modified.
func (q Query) Apply(records []models.ComparisonRecord) []models.ComparisonRecord {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.ComparisonRecord, 0, len(records))

	for _, r := range records {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		if q.StackSize > 0 && r.StackSize != q.StackSize {
			continue
		}
		if q.MinPrice > r.APrice.Total {
			continue
		}
		if q.MaxSourceGold > 0 && r.APrice.Gold > q.MaxSourceGold {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// StackSizes lists the distinct stack sizes in records, largest first.
func StackSizes(records []models.ComparisonRecord) []int64 {
	seen := make(map[int64]struct{})
	var sizes []int64
	for _, r := range records {
		if _, ok := seen[r.StackSize]; ok {
			continue
		}
		seen[r.StackSize] = struct{}{}
		sizes = append(sizes, r.StackSize)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] > sizes[j] })
	return sizes
}
