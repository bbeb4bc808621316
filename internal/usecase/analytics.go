// Package usecase wires the price cache, strategy pipeline and report
// builder into the operations the transport layers expose.
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"QuantDesk/internal/domain/repository"
	"QuantDesk/internal/pricecache"
	"QuantDesk/internal/report"
	"QuantDesk/pkg/logger"
)

// Analytics coordinates snapshot, report generation and queries. The most
// recently built report is kept for the admin surface; query paths rebuild
// from the latest snapshot on every request.
type Analytics struct {
	cache   *pricecache.Cache
	builder *report.Builder
	log     *logger.Logger
	metrics repository.Metrics

	mu     sync.Mutex
	latest *report.Report
}

// NewAnalytics creates the analytics engine.
func NewAnalytics(cache *pricecache.Cache, builder *report.Builder,
	log *logger.Logger, metrics repository.Metrics) *Analytics {
	return &Analytics{cache: cache, builder: builder, log: log, metrics: metrics}
}

// GenerateReport builds a report from the current snapshot and persists it
// as CSV.
func (a *Analytics) GenerateReport(ctx context.Context) error {
	start := time.Now()
	r, err := a.rebuild()
	if err != nil {
		return err
	}
	if err := a.builder.Persist(r); err != nil {
		a.metrics.RecordError("report_persist")
		return fmt.Errorf("persist report: %w", err)
	}
	a.metrics.RecordLatency("generate_report", time.Since(start).Seconds())
	a.log.Info("report generated", logger.Int("rows", len(r.Rows)))
	return nil
}

// QueryData rebuilds the report from the latest snapshot and answers the
// point-in-time query against it.
func (a *Analytics) QueryData(ctx context.Context, asOf time.Time) ([]string, error) {
	start := time.Now()
	r, err := a.rebuild()
	if err != nil {
		return nil, err
	}
	lines, err := r.Query(asOf, len(a.cache.Tickers()))
	if err != nil {
		return nil, err
	}
	a.metrics.RecordLatency("query_data", time.Since(start).Seconds())
	return lines, nil
}

// AddTicker starts tracking sym.
func (a *Analytics) AddTicker(ctx context.Context, sym string) error {
	return a.cache.AddTicker(ctx, sym)
}

// RemoveTicker stops tracking sym.
func (a *Analytics) RemoveTicker(ctx context.Context, sym string) error {
	return a.cache.RemoveTicker(sym)
}

// Tickers returns the tracked ticker list.
func (a *Analytics) Tickers() []string {
	return a.cache.Tickers()
}

// LatestReport returns the most recently built report, or nil before the
// first build.
func (a *Analytics) LatestReport() *report.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

func (a *Analytics) rebuild() (*report.Report, error) {
	snapshot, _ := a.cache.Snapshot()
	if snapshot.Len() == 0 {
		return nil, fmt.Errorf("price cache is empty")
	}
	r := a.builder.Build(snapshot)

	a.mu.Lock()
	a.latest = r
	a.mu.Unlock()
	return r, nil
}
