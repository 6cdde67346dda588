package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ah-arbitrage/internal/cache"
	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/export"
	"ah-arbitrage/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Comparer returns the ranked comparison of a market pair.
type Comparer interface {
	Compared(ctx context.Context, pair models.MarketPair) (*cache.Snapshot, error)
}

// RunStore reads persisted comparison runs.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]models.ComparisonRun, error)
	GetRun(ctx context.Context, id string) (*models.ComparisonRun, error)
}

// Deps are the collaborators of the API. Runs may be nil when persistence is off.
type Deps struct {
	Comparer    Comparer
	Runs        RunStore
	DefaultPair models.MarketPair
	Logger      *zap.Logger
}

type APIHandler struct {
	comparer    Comparer
	runs        RunStore
	defaultPair models.MarketPair
	logger      *zap.Logger
}

func SetupRoutes(r *gin.RouterGroup, deps Deps) *APIHandler {
	handler := &APIHandler{
		comparer:    deps.Comparer,
		runs:        deps.Runs,
		defaultPair: deps.DefaultPair,
		logger:      deps.Logger,
	}
	if handler.logger == nil {
		handler.logger = zap.NewNop()
	}

	r.GET("/compared-prices", handler.GetComparedPrices)
	r.GET("/compared-prices.xlsx", handler.ExportComparedPrices)

	runs := r.Group("/runs")
	{
		runs.GET("", handler.ListRuns)
		runs.GET("/:id", handler.GetRun)
	}

	return handler
}

type comparedPricesResponse struct {
	// LastUpdated is the computation time in unix milliseconds.
	LastUpdated int64                     `json:"lastUpdated"`
	Items       []models.ComparisonRecord `json:"items"`
	Total       int                       `json:"total"`
	StackSizes  []int64                   `json:"stackSizes"`
}

// GetComparedPrices returns the ranked comparison of a market pair.
// GET /api/compared-prices?auctionHouseAID=564&auctionHouseBID=560&search=&stackSize=&minPrice=&maxGold=&limit=
// The minimum price can also be given as minGold, minSilver and minCopper;
// the larger of the two minimums applies.
func (h *APIHandler) GetComparedPrices(c *gin.Context) {
	snap, q, ok := h.comparedWithQuery(c)
	if !ok {
		return
	}

	items := q.Apply(snap.Items)
	c.JSON(http.StatusOK, comparedPricesResponse{
		LastUpdated: snap.LastUpdated.UnixMilli(),
		Items:       items,
		Total:       len(snap.Items),
		StackSizes:  nonNil(compare.StackSizes(snap.Items)),
	})
}

// ExportComparedPrices returns the same projection as GetComparedPrices as a spreadsheet.
func (h *APIHandler) ExportComparedPrices(c *gin.Context) {
	snap, q, ok := h.comparedWithQuery(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, q.Apply(snap.Items)); err != nil {
		h.logger.Error("xlsx export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("compared-prices-%d.xlsx", snap.LastUpdated.Unix())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *APIHandler) comparedWithQuery(c *gin.Context) (*cache.Snapshot, compare.Query, bool) {
	pair, err := h.parsePair(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, compare.Query{}, false
	}
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, compare.Query{}, false
	}

	snap, err := h.comparer.Compared(c.Request.Context(), pair)
	if err != nil {
		h.logger.Error("compared prices unavailable", zap.Stringer("pair", pair), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "pricing data unavailable"})
		return nil, compare.Query{}, false
	}
	return snap, q, true
}

func (h *APIHandler) parsePair(c *gin.Context) (models.MarketPair, error) {
	pair := h.defaultPair
	var err error
	if pair.SourceID, err = positiveParam(c, "auctionHouseAID", pair.SourceID); err != nil {
		return pair, err
	}
	if pair.TargetID, err = positiveParam(c, "auctionHouseBID", pair.TargetID); err != nil {
		return pair, err
	}
	if pair.SourceID == pair.TargetID {
		return pair, fmt.Errorf("auctionHouseAID and auctionHouseBID must differ")
	}
	return pair, nil
}

func parseQuery(c *gin.Context) (compare.Query, error) {
	q := compare.Query{Search: c.Query("search")}
	var err error
	if q.StackSize, err = int64Param(c, "stackSize"); err != nil {
		return q, err
	}
	if q.MinPrice, err = int64Param(c, "minPrice"); err != nil {
		return q, err
	}
	parts, err := minPriceParts(c)
	if err != nil {
		return q, err
	}
	if parts > q.MinPrice {
		q.MinPrice = parts
	}
	if q.MaxSourceGold, err = int64Param(c, "maxGold"); err != nil {
		return q, err
	}
	limit, err := int64Param(c, "limit")
	if err != nil {
		return q, err
	}
	q.Limit = int(limit)
	return q, nil
}

// minPriceParts combines minGold, minSilver and minCopper into copper.
func minPriceParts(c *gin.Context) (int64, error) {
	var gsc [3]int64
	for i, name := range []string{"minGold", "minSilver", "minCopper"} {
		n, err := int64Param(c, name)
		if err != nil {
			return 0, err
		}
		gsc[i] = n
	}
	return compare.CurrencyFromParts(gsc[0], gsc[1], gsc[2]).Total, nil
}

// int64Param reads a non-negative integer query parameter; absent means 0.
func int64Param(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

func positiveParam(c *gin.Context, name string, def int64) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

func nonNil(v []int64) []int64 {
	if v == nil {
		return []int64{}
	}
	return v
}
