package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/domain"
	"github.com/cavea/backoffice/internal/gateway"
	"github.com/cavea/backoffice/internal/observability"
)

//go:generate mockgen -source refresher.go -destination=mock_source_test.go -package=catalog

// Source is the slice of the gateway the refresher needs.
type Source interface {
	ListProducts(ctx context.Context, p gateway.ListProductsParams) ([]domain.Product, error)
	GetMeta(ctx context.Context) (domain.Meta, error)
}

// Refresher polls the backend for the full product list and reference
// metadata, swapping in a fresh immutable snapshot each cycle. A failed cycle
// keeps the last good snapshot; forms keep resolving against slightly stale
// data rather than nothing.
type Refresher struct {
	src      Source
	interval time.Duration
	pageSize int
	logger   *zap.Logger
	metrics  observability.Metrics

	mu   sync.RWMutex
	snap *Snapshot
}

func NewRefresher(src Source, interval time.Duration, pageSize int, logger *zap.Logger, metrics observability.Metrics) *Refresher {
	if interval <= 0 {
		interval = 40 * time.Second
	}
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Refresher{
		src:      src,
		interval: interval,
		pageSize: pageSize,
		logger:   logger,
		metrics:  metrics,
		snap:     NewSnapshot(nil, domain.Meta{}, time.Time{}),
	}
}

// Latest returns the most recent snapshot. Never nil; before the first
// successful refresh it is empty and every lookup misses.
func (r *Refresher) Latest() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Run refreshes once immediately, then on every tick until the context is
// done. Intended to be started as a goroutine from main.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Warn("initial catalog refresh failed", zap.Error(err))
	}

	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := r.Refresh(ctx); err != nil {
				r.logger.Warn("catalog refresh failed, keeping previous snapshot",
					zap.Error(err),
					zap.Time("snapshot_at", r.Latest().FetchedAt()),
				)
			}
		}
	}
}

// Refresh fetches products page by page plus the metadata set and publishes
// a new snapshot.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()

	var products []domain.Product
	for page := 1; ; page++ {
		batch, err := r.src.ListProducts(ctx, gateway.ListProductsParams{Page: page, Limit: r.pageSize})
		if err != nil {
			r.metrics.ObserveRefresh(sinceMs(start), 0, false)
			return err
		}
		products = append(products, batch...)
		if len(batch) < r.pageSize {
			break
		}
	}

	meta, err := r.src.GetMeta(ctx)
	if err != nil {
		r.metrics.ObserveRefresh(sinceMs(start), 0, false)
		return err
	}

	snap := NewSnapshot(products, meta, time.Now())
	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	r.metrics.ObserveRefresh(sinceMs(start), len(products), true)
	r.logger.Info("catalog snapshot refreshed",
		zap.Int("products", len(products)),
		zap.Float64("dur_ms", sinceMs(start)),
	)
	return nil
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
