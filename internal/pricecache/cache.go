// Package pricecache holds the in-memory price table for the tracked tickers
// and serializes every mutation behind a single mutex. Provider calls never
// happen while the lock is held.
package pricecache

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"QuantDesk/internal/domain/models"
	"QuantDesk/internal/domain/repository"
	"QuantDesk/internal/frame"
	"QuantDesk/pkg/logger"
)

// TickHook observes every realtime price merged into the cache. It runs
// outside the cache lock and must not block for long.
type TickHook func(models.Tick)

// Cache is the shared price table.
type Cache struct {
	historical      repository.HistoricalSource
	quotes          repository.QuoteSource
	samplingMinutes int
	log             *logger.Logger
	metrics         repository.Metrics

	mu      sync.Mutex
	tickers []string
	prices  *frame.Frame

	hook TickHook
}

// New creates an empty cache for the given tickers. Initialize must be
// called before the cache serves snapshots.
func New(historical repository.HistoricalSource, quotes repository.QuoteSource,
	tickers []string, samplingMinutes int, log *logger.Logger, metrics repository.Metrics) *Cache {
	return &Cache{
		historical:      historical,
		quotes:          quotes,
		samplingMinutes: samplingMinutes,
		log:             log,
		metrics:         metrics,
		tickers:         append([]string(nil), tickers...),
		prices:          frame.New(),
	}
}

// SetTickHook registers the archiver callback.
func (c *Cache) SetTickHook(hook TickHook) {
	c.mu.Lock()
	c.hook = hook
	c.mu.Unlock()
}

// Initialize fetches history for every tracked ticker and builds the price
// table from scratch. Any fetch failure aborts the whole build.
func (c *Cache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	tickers := append([]string(nil), c.tickers...)
	c.mu.Unlock()

	built, err := c.fetchAll(ctx, tickers)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.prices = built
	n := len(c.tickers)
	c.mu.Unlock()

	c.metrics.SetTrackedTickers(n)
	c.log.Info("price cache initialized",
		logger.Strings("tickers", tickers),
		logger.Int("rows", built.Len()))
	return nil
}

// AppendRealtime pulls the latest quote for every tracked ticker and merges
// a new row when any quote is newer than the cache's latest timestamp.
// It returns the number of rows appended (0 or 1).
func (c *Cache) AppendRealtime(ctx context.Context) (int, error) {
	c.mu.Lock()
	tickers := append([]string(nil), c.tickers...)
	hook := c.hook
	c.mu.Unlock()

	if len(tickers) == 0 {
		return 0, nil
	}

	values := make(map[string]float64, len(tickers))
	var newest time.Time
	var failures int
	for _, ticker := range tickers {
		q, err := c.quotes.LatestQuote(ctx, ticker)
		if err != nil {
			failures++
			c.metrics.RecordError("quote_fetch")
			c.log.Warn("quote fetch failed",
				logger.String("ticker", ticker), logger.Error(err))
			continue
		}
		values[ticker] = q.Price
		if q.Time.After(newest) {
			newest = q.Time
		}
		c.metrics.RecordLastPrice(ticker, q.Price)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("all %d quote fetches failed", failures)
	}

	c.mu.Lock()
	appended := 0
	if newest.After(c.prices.LastTime()) {
		c.prices.AppendRow(newest, values)
		appended = 1
	}
	c.mu.Unlock()

	if appended == 1 && hook != nil {
		for ticker, price := range values {
			hook(models.Tick{Symbol: ticker, Time: newest, Price: price})
		}
	}
	return appended, nil
}

// AddTicker starts tracking sym. The validating history fetch runs outside
// the lock; the structural change is applied under it, and a full rebuild is
// kicked off asynchronously so the new column gets deep history. A rebuild
// failure only logs.
func (c *Cache) AddTicker(ctx context.Context, sym string) error {
	c.mu.Lock()
	tracked := c.isTracked(sym)
	c.mu.Unlock()
	if tracked {
		return nil
	}

	series, err := c.historical.FetchHistorical(ctx, sym, c.samplingMinutes)
	if err != nil {
		return fmt.Errorf("validate %s: %w", sym, err)
	}

	c.mu.Lock()
	added := false
	if !c.isTracked(sym) {
		c.tickers = append(c.tickers, sym)
		c.prices.AddColumn(series)
		added = true
	}
	n := len(c.tickers)
	c.mu.Unlock()

	if added {
		c.subscribe(sym)
	}
	c.metrics.SetTrackedTickers(n)
	c.log.Info("ticker added", logger.String("ticker", sym))

	go c.rebuild(context.WithoutCancel(ctx))
	return nil
}

// RemoveTicker stops tracking sym and drops its column.
func (c *Cache) RemoveTicker(sym string) error {
	c.mu.Lock()
	if !c.isTracked(sym) {
		c.mu.Unlock()
		return fmt.Errorf("remove %s: %w", sym, models.ErrTickerNotFound)
	}
	for i, t := range c.tickers {
		if t == sym {
			c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
			break
		}
	}
	c.prices.DropColumn(sym)
	n := len(c.tickers)
	c.mu.Unlock()

	c.unsubscribe(sym)
	c.metrics.DropSymbol(sym)
	c.metrics.SetTrackedTickers(n)
	c.log.Info("ticker removed", logger.String("ticker", sym))
	return nil
}

// subscribe forwards a newly tracked symbol to the quote source when it
// holds a live subscription. Failures only log; the next reconnect
// resubscribes the full set.
func (c *Cache) subscribe(sym string) {
	sub, ok := c.quotes.(repository.SymbolSubscriber)
	if !ok {
		return
	}
	if err := sub.Subscribe(sym); err != nil {
		c.metrics.RecordError("subscribe")
		c.log.Warn("symbol subscribe failed",
			logger.String("ticker", sym), logger.Error(err))
	}
}

func (c *Cache) unsubscribe(sym string) {
	sub, ok := c.quotes.(repository.SymbolSubscriber)
	if !ok {
		return
	}
	if err := sub.Unsubscribe(sym); err != nil {
		c.metrics.RecordError("unsubscribe")
		c.log.Warn("symbol unsubscribe failed",
			logger.String("ticker", sym), logger.Error(err))
	}
}

// Snapshot returns an independent copy of the price table and the tracked
// ticker list.
func (c *Cache) Snapshot() (*frame.Frame, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prices.Clone(), append([]string(nil), c.tickers...)
}

// Tickers returns the tracked ticker list.
func (c *Cache) Tickers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tickers...)
}

// LatestTime returns the newest cached timestamp.
func (c *Cache) LatestTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prices.LastTime()
}

// rebuild refetches full history for the current ticker set and swaps the
// table in. Tickers removed while fetching are dropped from the result;
// tickers added meanwhile keep their existing column, rejoined on the new
// index.
func (c *Cache) rebuild(ctx context.Context) {
	c.mu.Lock()
	tickers := append([]string(nil), c.tickers...)
	c.mu.Unlock()

	built, err := c.fetchAll(ctx, tickers)
	if err != nil {
		c.metrics.RecordError("rebuild")
		c.log.Error("cache rebuild failed", logger.Error(err))
		return
	}

	c.mu.Lock()
	old := c.prices
	for _, col := range append([]string(nil), built.Cols...) {
		if !c.isTracked(col) {
			built.DropColumn(col)
		}
	}
	for _, t := range c.tickers {
		if _, ok := built.Data[t]; !ok {
			built.AddColumn(columnSeries(old, t))
		}
	}
	c.prices = built
	c.mu.Unlock()

	c.log.Info("price cache rebuilt",
		logger.Strings("tickers", tickers), logger.Int("rows", built.Len()))
}

// fetchAll pulls history for each ticker and outer-joins the series. Callers
// must not hold the lock.
func (c *Cache) fetchAll(ctx context.Context, tickers []string) (*frame.Frame, error) {
	series := make([]models.Series, 0, len(tickers))
	for _, ticker := range tickers {
		s, err := c.historical.FetchHistorical(ctx, ticker, c.samplingMinutes)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ticker, err)
		}
		series = append(series, s)
	}
	return frame.FromSeries(series), nil
}

// isTracked reports whether sym is in the ticker list. Callers hold c.mu.
func (c *Cache) isTracked(sym string) bool {
	for _, t := range c.tickers {
		if t == sym {
			return true
		}
	}
	return false
}

// columnSeries extracts a column back into a series, skipping empty cells.
func columnSeries(f *frame.Frame, name string) models.Series {
	s := models.Series{Ticker: name}
	col, ok := f.Data[name]
	if !ok {
		return s
	}
	for i, v := range col {
		if !math.IsNaN(v) {
			s.Points = append(s.Points, models.PricePoint{Time: f.Times[i], Price: v})
		}
	}
	return s
}
