// Package comparison serves ranked cross-market comparisons, recomputing them
// from fresh pricing snapshots when the cached result has expired.
package comparison

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ah-arbitrage/internal/cache"
	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/models"
	"ah-arbitrage/internal/observability"
	"ah-arbitrage/internal/services/catalog"
)

const (
	// DefaultTTL is how long a computed comparison is served from cache.
	DefaultTTL = 15 * time.Minute
	// DefaultRefreshTimeout bounds one shared fetch-and-compare run.
	DefaultRefreshTimeout = 2 * time.Minute
)

// Fetcher downloads the raw snapshots of both markets of a pair.
type Fetcher interface {
	FetchPair(ctx context.Context, pair models.MarketPair) (source, target []models.PriceRecord, err error)
}

// RunRecorder persists computed runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, pair models.MarketPair, snap *cache.Snapshot) (*models.ComparisonRun, error)
}

// Service computes and caches comparisons per market pair.
type Service struct {
	fetcher Fetcher
	catalog catalog.Source
	store   cache.Store
	policy  compare.Policy

	runs    RunRecorder
	metrics *observability.Metrics
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	refreshTimeout time.Duration

	group singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithRunRecorder persists every computed run through r.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Service) { s.runs = r }
}

// WithMetrics sets the metrics the service reports to.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRefreshTimeout bounds one shared refresh, independent of any caller.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshTimeout = d
		}
	}
}

// WithTTL sets how long a computed comparison is served from cache.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a Service. The policy is validated once here.
func New(fetcher Fetcher, src catalog.Source, store cache.Store, policy compare.Policy, opts ...Option) (*Service, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		fetcher: fetcher,
		catalog: src,
		store:   store,
		policy:  policy,
		logger:  zap.NewNop(),
		ttl:     DefaultTTL,
		now:     time.Now,

		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics("")
	}
	return s, nil
}

// Compared returns the ranked comparison of pair, from cache while it is fresh.
// Concurrent refreshes of the same pair share one computation. Cancelling ctx
// only stops this caller from waiting; the shared computation keeps running.
func (s *Service) Compared(ctx context.Context, pair models.MarketPair) (*cache.Snapshot, error) {
	if snap, ok := s.cached(ctx, pair); ok {
		s.metrics.CacheHits.Inc()
		return snap, nil
	}
	s.metrics.CacheMisses.Inc()

	return s.shared(ctx, pair, func(fctx context.Context) (*cache.Snapshot, error) {
		// a concurrent flight may have just stored a result
		if snap, ok := s.cached(fctx, pair); ok {
			return snap, nil
		}
		return s.refresh(fctx, pair)
	})
}

// Refresh recomputes the comparison of pair regardless of the cache.
func (s *Service) Refresh(ctx context.Context, pair models.MarketPair) (*cache.Snapshot, error) {
	return s.shared(ctx, pair, func(fctx context.Context) (*cache.Snapshot, error) {
		return s.refresh(fctx, pair)
	})
}

// shared runs fn once per pair across concurrent callers. fn gets a context
// detached from any single caller and bounded by the refresh timeout.
func (s *Service) shared(ctx context.Context, pair models.MarketPair, fn func(context.Context) (*cache.Snapshot, error)) (*cache.Snapshot, error) {
	ch := s.group.DoChan(cache.Key(pair), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return fn(fctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Snapshot), nil
	}
}

func (s *Service) cached(ctx context.Context, pair models.MarketPair) (*cache.Snapshot, bool) {
	snap, err := s.store.Get(ctx, cache.Key(pair))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache read failed", zap.Stringer("pair", pair), zap.Error(err))
		}
		return nil, false
	}
	if snap.Expired(s.now()) {
		return nil, false
	}
	return snap, true
}

func (s *Service) refresh(ctx context.Context, pair models.MarketPair) (*cache.Snapshot, error) {
	started := s.now()

	snap, err := s.compute(ctx, pair)
	s.metrics.RecordRun(pair.String(), len(itemsOf(snap)), s.now().Sub(started), err)
	if err != nil {
		s.logger.Error("comparison failed", zap.Stringer("pair", pair), zap.Error(err))
		return nil, err
	}

	if err := s.store.Set(ctx, cache.Key(pair), snap); err != nil {
		s.logger.Warn("cache write failed", zap.Stringer("pair", pair), zap.Error(err))
	}

	if s.runs != nil {
		run, err := s.runs.SaveRun(ctx, pair, snap)
		if err != nil {
			s.logger.Warn("failed to persist comparison run", zap.Stringer("pair", pair), zap.Error(err))
		} else {
			s.logger.Debug("comparison run persisted", zap.String("run_id", run.ID))
		}
	}

	s.logger.Info("comparison refreshed",
		zap.Stringer("pair", pair),
		zap.Int("items", len(snap.Items)),
		zap.Duration("took", s.now().Sub(started)))
	return snap, nil
}

func (s *Service) compute(ctx context.Context, pair models.MarketPair) (*cache.Snapshot, error) {
	source, target, err := s.fetcher.FetchPair(ctx, pair)
	if err != nil {
		s.metrics.FetchErrors.WithLabelValues("auction_house").Inc()
		return nil, errors.Wrapf(err, "fetch prices for %s", pair)
	}

	items, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load item catalog")
	}

	source = s.sanitize("source", source)
	target = s.sanitize("target", target)

	ranked, err := compare.Compare(source, target, items, s.policy)
	if err != nil {
		return nil, err
	}
	return cache.NewSnapshot(ranked, s.now(), s.ttl), nil
}

func (s *Service) sanitize(side string, records []models.PriceRecord) []models.PriceRecord {
	valid, rejected := compare.SanitizePrices(records)
	if len(rejected) > 0 {
		s.metrics.RejectedRecords.WithLabelValues("price").Add(float64(len(rejected)))
		s.logger.Warn("dropped malformed price records",
			zap.String("side", side),
			zap.Int("count", len(rejected)),
			zap.Error(rejected[0]))
	}
	return valid
}

func itemsOf(snap *cache.Snapshot) []models.ComparisonRecord {
	if snap == nil {
		return nil
	}
	return snap.Items
}
