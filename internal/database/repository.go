package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"ah-arbitrage/internal/cache"
	"ah-arbitrage/internal/models"
)

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("comparison run not found")

const (
	defaultListLimit = 20
	maxListLimit     = 200
	insertBatchSize  = 500
)

// Repository stores comparison runs.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveRun stores snap as a new run of pair, rows in ranked order.
func (r *Repository) SaveRun(ctx context.Context, pair models.MarketPair, snap *cache.Snapshot) (*models.ComparisonRun, error) {
	run := NewRun(pair, snap)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := run.Rows
		run.Rows = nil
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
				return err
			}
		}
		run.Rows = rows
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "save comparison run for %s", pair)
	}
	return run, nil
}

// ListRuns returns the latest runs without their rows, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]models.ComparisonRun, error) {
	var runs []models.ComparisonRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&runs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list comparison runs")
	}
	return runs, nil
}

// GetRun returns one run with its rows in rank order.
func (r *Repository) GetRun(ctx context.Context, id string) (*models.ComparisonRun, error) {
	var run models.ComparisonRun
	err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB { return db.Order("`rank` ASC") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get comparison run %s", id)
	}
	return &run, nil
}

// NewRun converts a snapshot into a run with a fresh id.
func NewRun(pair models.MarketPair, snap *cache.Snapshot) *models.ComparisonRun {
	id := uuid.NewString()
	run := &models.ComparisonRun{
		ID:        id,
		SourceID:  pair.SourceID,
		TargetID:  pair.TargetID,
		ItemCount: len(snap.Items),
		CreatedAt: snap.LastUpdated,
		Rows:      make([]models.ComparisonRow, 0, len(snap.Items)),
	}
	for i, item := range snap.Items {
		run.Rows = append(run.Rows, models.ComparisonRow{
			RunID:          id,
			Rank:           i + 1,
			ItemID:         item.ID,
			Name:           item.Name,
			StackSize:      item.StackSize,
			SourcePrice:    item.APrice.Total,
			TargetPrice:    item.BPrice.Total,
			Diff:           item.Diff,
			DiffPercentage: item.DiffPercentage,
		})
	}
	return run
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
