package compare

import (
	"sort"

	"ah-arbitrage/internal/models"
)

// Rank orders records by DiffPercentage, highest first. Equal percentages
// are ordered by item id so the output is reproducible. Rank sorts in place.
func Rank(records []models.ComparisonRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].DiffPercentage != records[j].DiffPercentage {
			return records[i].DiffPercentage > records[j].DiffPercentage
		}
		return records[i].ID < records[j].ID
	})
}
