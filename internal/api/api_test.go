package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ah-arbitrage/internal/cache"
	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/database"
	"ah-arbitrage/internal/models"
)

var updated = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeComparer struct {
	pairs []models.MarketPair
	err   error
}

func (f *fakeComparer) Compared(_ context.Context, pair models.MarketPair) (*cache.Snapshot, error) {
	f.pairs = append(f.pairs, pair)
	if f.err != nil {
		return nil, f.err
	}
	items := []models.ComparisonRecord{
		{ID: 1, Name: "Silk Cloth", StackSize: 20, APrice: compare.ToCurrency(5000), DiffPercentage: 300},
		{ID: 2, Name: "Mageweave Cloth", StackSize: 20, APrice: compare.ToCurrency(450000), DiffPercentage: 200},
		{ID: 3, Name: "Healing Potion", StackSize: 5, APrice: compare.ToCurrency(800), DiffPercentage: 150},
	}
	return cache.NewSnapshot(items, updated, time.Minute), nil
}

type fakeRuns struct{}

func (fakeRuns) ListRuns(_ context.Context, limit int) ([]models.ComparisonRun, error) {
	return []models.ComparisonRun{{ID: "a", ItemCount: limit}}, nil
}

func (fakeRuns) GetRun(_ context.Context, id string) (*models.ComparisonRun, error) {
	if id != "a" {
		return nil, database.ErrRunNotFound
	}
	return &models.ComparisonRun{ID: "a", Rows: []models.ComparisonRow{{RunID: "a", Rank: 1, ItemID: 1}}}, nil
}

func newRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if deps.DefaultPair == (models.MarketPair{}) {
		deps.DefaultPair = models.MarketPair{SourceID: 564, TargetID: 560}
	}
	SetupRoutes(r.Group("/api"), deps)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) comparedPricesResponse {
	t.Helper()
	var resp comparedPricesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func itemIDs(items []models.ComparisonRecord) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestGetComparedPrices(t *testing.T) {
	comparer := &fakeComparer{}
	r := newRouter(Deps{Comparer: comparer})

	rec := get(r, "/api/compared-prices")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, updated.UnixMilli(), resp.LastUpdated)
	assert.Equal(t, []int64{1, 2, 3}, itemIDs(resp.Items))
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, []int64{20, 5}, resp.StackSizes)
	assert.Equal(t, []models.MarketPair{{SourceID: 564, TargetID: 560}}, comparer.pairs)
}

func TestGetComparedPrices_Pair(t *testing.T) {
	comparer := &fakeComparer{}
	r := newRouter(Deps{Comparer: comparer})

	rec := get(r, "/api/compared-prices?auctionHouseAID=562&auctionHouseBID=564")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.MarketPair{{SourceID: 562, TargetID: 564}}, comparer.pairs)
}

func TestGetComparedPrices_Filters(t *testing.T) {
	r := newRouter(Deps{Comparer: &fakeComparer{}})

	tests := []struct {
		query string
		want  []int64
	}{
		{"search=cloth", []int64{1, 2}},
		{"stackSize=5", []int64{3}},
		{"minPrice=1000", []int64{1, 2}},
		{"minSilver=10", []int64{1, 2}},
		{"minSilver=8", []int64{1, 2, 3}},
		{"minGold=1", []int64{2}},
		{"minGold=4&minSilver=50", []int64{2}},
		{"minGold=45&minCopper=1", []int64{}},
		{"minPrice=1000&minSilver=60", []int64{2}},
		{"maxGold=40", []int64{1, 3}},
		{"limit=1", []int64{1}},
		{"search=potion&stackSize=20", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(r, "/api/compared-prices?"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			resp := decode(t, rec)
			assert.Equal(t, tt.want, itemIDs(resp.Items))
			assert.Equal(t, 3, resp.Total)
		})
	}
}

func TestGetComparedPrices_BadRequest(t *testing.T) {
	comparer := &fakeComparer{}
	r := newRouter(Deps{Comparer: comparer})

	for _, query := range []string{
		"auctionHouseAID=abc",
		"auctionHouseBID=-1",
		"auctionHouseAID=560",
		"stackSize=x",
		"minPrice=-5",
		"minGold=one",
		"minCopper=-1",
		"limit=1.5",
	} {
		t.Run(query, func(t *testing.T) {
			rec := get(r, "/api/compared-prices?"+query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, comparer.pairs, "invalid requests never reach the comparer")
}

func TestGetComparedPrices_UpstreamError(t *testing.T) {
	r := newRouter(Deps{Comparer: &fakeComparer{err: errors.New("tsm down")}})

	rec := get(r, "/api/compared-prices")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tsm down")
}

func TestExportComparedPrices(t *testing.T) {
	r := newRouter(Deps{Comparer: &fakeComparer{}})

	rec := get(r, "/api/compared-prices.xlsx?search=cloth")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "compared-prices-")
	// xlsx files are zip archives
	assert.Equal(t, "PK", rec.Body.String()[:2])
}

func TestRuns(t *testing.T) {
	t.Run("disabled without a store", func(t *testing.T) {
		r := newRouter(Deps{Comparer: &fakeComparer{}})
		assert.Equal(t, http.StatusNotFound, get(r, "/api/runs").Code)
		assert.Equal(t, http.StatusNotFound, get(r, "/api/runs/a").Code)
	})

	r := newRouter(Deps{Comparer: &fakeComparer{}, Runs: fakeRuns{}})

	t.Run("list", func(t *testing.T) {
		rec := get(r, "/api/runs?limit=5")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Runs []models.ComparisonRun `json:"runs"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Runs, 1)
		assert.Equal(t, 5, body.Runs[0].ItemCount)
	})

	t.Run("invalid limit", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(r, "/api/runs?limit=0").Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := get(r, "/api/runs/a")
		require.Equal(t, http.StatusOK, rec.Code)

		var run models.ComparisonRun
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Len(t, run.Rows, 1)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(r, "/api/runs/zzz").Code)
	})
}
