package compare

import (
	"errors"
	"fmt"
	"strings"

	"ah-arbitrage/internal/models"
)

const poorQuality = "poor"

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid comparison policy")

// Policy holds the tunable eligibility rules.
type Policy struct {
	// AllowedClasses are item classes that can be compared, matched case-insensitively.
	AllowedClasses []string `yaml:"allowed_classes" json:"allowedClasses"`
	// LiquidityFloor is the target market value (copper) an item must exceed.
	LiquidityFloor int64 `yaml:"liquidity_floor" json:"liquidityFloor"`
	// Threshold bounds marketValue/minBuyout to [1-Threshold, 1+Threshold] in both markets.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// MinAuctions, when positive, requires more than this many auctions in both markets.
	MinAuctions int64 `yaml:"min_auctions" json:"minAuctions"`
}

// DefaultPolicy returns the rules used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		AllowedClasses: []string{"trade goods", "consumable"},
		LiquidityFloor: 1000,
		Threshold:      0.5,
	}
}

// Validate checks the policy before a run.
func (p Policy) Validate() error {
	if len(p.AllowedClasses) == 0 {
		return fmt.Errorf("%w: allowed classes must not be empty", ErrInvalidPolicy)
	}
	for _, c := range p.AllowedClasses {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: allowed classes contain a blank entry", ErrInvalidPolicy)
		}
	}
	if p.LiquidityFloor < 0 {
		return fmt.Errorf("%w: liquidity floor %d is negative", ErrInvalidPolicy, p.LiquidityFloor)
	}
	if p.Threshold < 0 {
		return fmt.Errorf("%w: threshold %v is negative", ErrInvalidPolicy, p.Threshold)
	}
	if p.MinAuctions < 0 {
		return fmt.Errorf("%w: min auctions %d is negative", ErrInvalidPolicy, p.MinAuctions)
	}
	return nil
}

// IsEligible reports whether source and target can be compared.
// target and entry are nil when the item is missing from the target market
// or from the catalog.
func (p Policy) IsEligible(source models.PriceRecord, target *models.PriceRecord, entry *models.CatalogEntry) bool {
	if !p.isValidGameItem(entry) {
		return false
	}
	if target == nil || target.MarketValue <= p.LiquidityFloor {
		return false
	}
	if p.MinAuctions > 0 && (source.NumAuctions <= p.MinAuctions || target.NumAuctions <= p.MinAuctions) {
		return false
	}
	return p.isStable(source) && p.isStable(*target)
}

func (p Policy) isValidGameItem(entry *models.CatalogEntry) bool {
	if entry == nil || entry.Quality == "" || entry.Class == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(entry.Quality), poorQuality) {
		return false
	}
	return p.allowsClass(entry.Class)
}

func (p Policy) allowsClass(class string) bool {
	class = strings.TrimSpace(class)
	for _, allowed := range p.AllowedClasses {
		if strings.EqualFold(class, strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

// isStable is the price-stability gate: the smoothed market value must stay
// close to the current lowest buyout.
func (p Policy) isStable(r models.PriceRecord) bool {
	if r.MinBuyout <= 0 {
		return false
	}
	ratio := float64(r.MarketValue) / float64(r.MinBuyout)
	return ratio >= 1-p.Threshold && ratio <= 1+p.Threshold
}
