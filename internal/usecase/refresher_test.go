package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"QuantDesk/internal/domain/models"
	"QuantDesk/internal/pricecache"
	"QuantDesk/pkg/logger"
)

type stubQuotes struct {
	mu sync.Mutex
	at time.Time
	px float64
}

func (s *stubQuotes) LatestQuote(_ context.Context, ticker string) (models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Quote{Ticker: ticker, Time: s.at, Price: s.px}, nil
}

func (s *stubQuotes) Name() string { return "stub-quotes" }

func TestRefresherAppendsNewQuotes(t *testing.T) {
	hist := &fakeHistorical{series: map[string]models.Series{
		"AAPL": seriesOf("AAPL", 10, 11, 12),
	}}
	quotes := &stubQuotes{at: ts(25), px: 13}
	cache := pricecache.New(hist, quotes, []string{"AAPL"}, 5, logger.Nop(), nopMetrics{})
	require.NoError(t, cache.Initialize(context.Background()))
	require.Equal(t, ts(10), cache.LatestTime())

	r := NewRefresher(cache, 5*time.Millisecond, logger.Nop(), nopMetrics{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	waitFor(t, func() bool { return cache.LatestTime().Equal(ts(25)) })
}

func TestRefresherKeepsRunningOnProviderError(t *testing.T) {
	hist := &fakeHistorical{series: map[string]models.Series{
		"AAPL": seriesOf("AAPL", 10, 11, 12),
	}}
	quotes := &stubQuotes{at: ts(25), px: 13}
	cache := pricecache.New(hist, &failThenRecover{next: quotes}, []string{"AAPL"}, 5, logger.Nop(), nopMetrics{})
	require.NoError(t, cache.Initialize(context.Background()))

	r := NewRefresher(cache, 5*time.Millisecond, logger.Nop(), nopMetrics{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	waitFor(t, func() bool { return cache.LatestTime().Equal(ts(25)) })
}

// failThenRecover fails the first call and delegates afterwards.
type failThenRecover struct {
	next  *stubQuotes
	calls atomic.Int32
}

func (f *failThenRecover) LatestQuote(ctx context.Context, ticker string) (models.Quote, error) {
	if f.calls.Add(1) == 1 {
		return models.Quote{}, models.NewProviderError("stub", "quote", context.DeadlineExceeded)
	}
	return f.next.LatestQuote(ctx, ticker)
}

func (f *failThenRecover) Name() string { return "fail-then-recover" }
