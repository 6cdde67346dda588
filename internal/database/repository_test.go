package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ah-arbitrage/internal/cache"
	"ah-arbitrage/internal/models"
)

func testSnapshot() *cache.Snapshot {
	items := []models.ComparisonRecord{
		{ID: 1, Name: "Linen Cloth", StackSize: 20, APrice: models.Currency{Total: 1000},
			BPrice: models.Currency{Total: 2000}, Diff: -1000, DiffPercentage: 200},
		{ID: 3, Name: "Minor Healing Potion", StackSize: 5, APrice: models.Currency{Total: 2000},
			BPrice: models.Currency{Total: 3000}, Diff: -1000, DiffPercentage: 150},
	}
	return cache.NewSnapshot(items, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), time.Minute)
}

func TestNewRun(t *testing.T) {
	pair := models.MarketPair{SourceID: 564, TargetID: 560}
	run := NewRun(pair, testSnapshot())

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(564), run.SourceID)
	assert.Equal(t, int64(560), run.TargetID)
	assert.Equal(t, 2, run.ItemCount)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), run.CreatedAt)

	require.Len(t, run.Rows, 2)
	assert.Equal(t, models.ComparisonRow{
		RunID: run.ID, Rank: 1, ItemID: 1, Name: "Linen Cloth", StackSize: 20,
		SourcePrice: 1000, TargetPrice: 2000, Diff: -1000, DiffPercentage: 200,
	}, run.Rows[0])
	assert.Equal(t, 2, run.Rows[1].Rank)
	assert.Equal(t, int64(3), run.Rows[1].ItemID)
}

func TestNewRun_IDsAreUnique(t *testing.T) {
	pair := models.MarketPair{SourceID: 1, TargetID: 2}
	assert.NotEqual(t, NewRun(pair, testSnapshot()).ID, NewRun(pair, testSnapshot()).ID)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, clampLimit(0))
	assert.Equal(t, defaultListLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, maxListLimit, clampLimit(10_000))
}

func TestInitialize_EmptyDSN(t *testing.T) {
	_, err := Initialize("")
	assert.ErrorIs(t, err, ErrNoDSN)
}

// TestRepository_MySQL runs against a real server when TEST_DATABASE_URL is set.
func TestRepository_MySQL(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := Initialize(dsn)
	require.NoError(t, err)
	repo := NewRepository(db)
	ctx := context.Background()

	saved, err := repo.SaveRun(ctx, models.MarketPair{SourceID: 564, TargetID: 560}, testSnapshot())
	require.NoError(t, err)

	got, err := repo.GetRun(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ItemCount)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, int64(1), got.Rows[0].ItemID)

	runs, err := repo.ListRuns(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)

	_, err = repo.GetRun(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRunNotFound)
}
