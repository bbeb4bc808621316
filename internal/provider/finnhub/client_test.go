package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDesk/internal/domain/models"
	"QuantDesk/pkg/logger"
)

func TestLatestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "key", r.URL.Query().Get("token"))
		w.Write([]byte(`{"c": 189.25, "t": 1754038800}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second, logger.Nop())
	q, err := c.LatestQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Ticker)
	assert.Equal(t, 189.25, q.Price)
	assert.Equal(t, int64(1754038800), q.Time.Unix())
}

func TestLatestQuoteUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c": 0, "t": 0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second, logger.Nop())
	_, err := c.LatestQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, models.IsProviderError(err))
}

func TestStreamLatestQuoteBeforeAnyTrade(t *testing.T) {
	s := NewStream(StreamConfig{URL: "wss://example", APIKey: "key"}, []string{"AAPL"}, logger.Nop())
	_, err := s.LatestQuote(context.Background(), "AAPL")
	assert.True(t, models.IsProviderError(err))
}

func TestStreamSubscribeUnsubscribeOffline(t *testing.T) {
	s := NewStream(StreamConfig{URL: "wss://example", APIKey: "key"}, nil, logger.Nop())
	require.NoError(t, s.Subscribe("MSFT"))
	s.latest["MSFT"] = models.Quote{Ticker: "MSFT", Price: 1}
	require.NoError(t, s.Unsubscribe("MSFT"))
	_, err := s.LatestQuote(context.Background(), "MSFT")
	assert.Error(t, err)
}
