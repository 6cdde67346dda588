package models

import (
	"fmt"
	"strconv"
)

// PriceRecord is one item of an auction house snapshot as returned by the pricing API.
// All prices are in copper.
type PriceRecord struct {
	AuctionHouseID int64 `json:"auctionHouseId"`
	ItemID         int64 `json:"itemId"`
	PetSpeciesID   int64 `json:"petSpeciesId"`
	MinBuyout      int64 `json:"minBuyout"`
	Quantity       int64 `json:"quantity"`
	MarketValue    int64 `json:"marketValue"`
	Historical     int64 `json:"historical"`
	NumAuctions    int64 `json:"numAuctions"`
}

// TooltipLine is a single line of an item tooltip.
type TooltipLine struct {
	Label  string `json:"label"`
	Format string `json:"format,omitempty"`
}

// CatalogEntry is the static metadata of an item (item dictionary export).
type CatalogEntry struct {
	ItemID        int64         `json:"itemId"`
	Name          string        `json:"name"`
	Icon          string        `json:"icon"`
	Class         string        `json:"class"`
	Subclass      string        `json:"subclass"`
	SellPrice     int64         `json:"sellPrice"`
	Quality       string        `json:"quality"`
	ItemLevel     int           `json:"itemLevel"`
	RequiredLevel int           `json:"requiredLevel"`
	Slot          string        `json:"slot"`
	Tooltip       []TooltipLine `json:"tooltip"`
	ItemLink      string        `json:"itemLink"`
	ContentPhase  int           `json:"contentPhase"`
	UniqueName    string        `json:"uniqueName"`
}

// Currency is a copper amount split into gold, silver and copper.
// Total always holds the amount the value was built from.
type Currency struct {
	Gold   int64 `json:"gold"`
	Silver int64 `json:"silver"`
	Copper int64 `json:"copper"`
	Total  int64 `json:"total"`
}

// String formats the amount the way the dashboard shows it, e.g. "12g 5s 0c".
func (c Currency) String() string {
	return fmt.Sprintf("%dg %ds %dc", c.Gold, c.Silver, c.Copper)
}

// ComparisonRecord is one compared item. A* fields are the source market, B* the target.
type ComparisonRecord struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	StackSize      int64    `json:"stackSize"`
	APrice         Currency `json:"aPrice"`
	AStackPrice    Currency `json:"aStackPrice"`
	BPrice         Currency `json:"bPrice"`
	BStackPrice    Currency `json:"bStackPrice"`
	Diff           int64    `json:"diff"`
	DiffPrice      Currency `json:"diffPrice"`
	DiffStackPrice Currency `json:"diffStackPrice"`
	DiffPercentage float64  `json:"diffPercentage"`
}

// MarketPair identifies the two auction houses being compared.
type MarketPair struct {
	SourceID int64 `json:"sourceId"`
	TargetID int64 `json:"targetId"`
}

func (p MarketPair) String() string {
	return strconv.FormatInt(p.SourceID, 10) + ":" + strconv.FormatInt(p.TargetID, 10)
}
