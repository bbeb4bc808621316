package usecase

import (
	"context"
	"time"

	"QuantDesk/internal/domain/repository"
	"QuantDesk/internal/pricecache"
	"QuantDesk/pkg/logger"
)

// Refresher appends realtime quotes to the cache once per sampling period.
// Provider failures are logged and counted, never fatal.
type Refresher struct {
	cache    *pricecache.Cache
	interval time.Duration
	log      *logger.Logger
	metrics  repository.Metrics
}

// NewRefresher creates a refresher ticking every interval.
func NewRefresher(cache *pricecache.Cache, interval time.Duration,
	log *logger.Logger, metrics repository.Metrics) *Refresher {
	return &Refresher{cache: cache, interval: interval, log: log, metrics: metrics}
}

// Run loops until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("refresher started", logger.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	n, err := r.cache.AppendRealtime(ctx)
	switch {
	case err != nil:
		r.metrics.RecordRefresh("error")
		r.log.Error("refresh failed", logger.Error(err))
	case n == 0:
		r.metrics.RecordRefresh("noop")
		r.log.Debug("no new updates yet")
	default:
		r.metrics.RecordRefresh("updated")
		r.log.Info("price updated", logger.Time("latest", r.cache.LatestTime()))
	}
}
