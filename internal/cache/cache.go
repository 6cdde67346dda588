// Package cache keeps computed comparisons for a limited time so repeated
// requests do not hit the pricing API.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ah-arbitrage/internal/models"
)

// ErrMiss is returned by Store.Get when nothing is cached under the key.
var ErrMiss = errors.New("cache miss")

// Snapshot is one cached comparison result.
type Snapshot struct {
	LastUpdated time.Time                 `json:"lastUpdated"`
	ExpiresAt   time.Time                 `json:"expiresAt"`
	Items       []models.ComparisonRecord `json:"items"`
}

// NewSnapshot stamps items with now and an expiry ttl later.
func NewSnapshot(items []models.ComparisonRecord, now time.Time, ttl time.Duration) *Snapshot {
	return &Snapshot{LastUpdated: now, ExpiresAt: now.Add(ttl), Items: items}
}

// Expired reports whether the snapshot must be recomputed.
func (s *Snapshot) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store holds snapshots by key.
type Store interface {
	Get(ctx context.Context, key string) (*Snapshot, error)
	Set(ctx context.Context, key string, s *Snapshot) error
}

// Key returns the cache key of a market pair.
func Key(pair models.MarketPair) string {
	return fmt.Sprintf("compared-prices:%d:%d", pair.SourceID, pair.TargetID)
}
