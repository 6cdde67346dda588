package compare

import (
	"regexp"
	"strconv"
	"strings"

	"ah-arbitrage/internal/models"
)

const maxStackPrefix = "max stack"

var digitsRe = regexp.MustCompile(`\d+`)

// ResolveStackSize reads the "Max Stack: N" tooltip line of an entry.
// Items without one (or with an unreadable one) stack to 1.
func ResolveStackSize(entry models.CatalogEntry) int64 {
	for _, line := range entry.Tooltip {
		if !strings.HasPrefix(strings.ToLower(line.Label), maxStackPrefix) {
			continue
		}
		n, err := strconv.ParseInt(digitsRe.FindString(line.Label), 10, 64)
		if err != nil || n < 1 {
			return 1
		}
		return n
	}
	return 1
}
