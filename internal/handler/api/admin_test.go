package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDesk/internal/report"
	"QuantDesk/pkg/cache"
	"QuantDesk/pkg/logger"
)

type fakeEngine struct {
	report  *report.Report
	tickers []string
}

func (f *fakeEngine) LatestReport() *report.Report { return f.report }
func (f *fakeEngine) Tickers() []string            { return f.tickers }

func testReport() *report.Report {
	return &report.Report{
		Tickers: []string{"AAPL"},
		Rows: []report.Row{
			{
				Time:   time.Date(2026, 8, 1, 10, 15, 0, 0, time.UTC),
				Ticker: "AAPL",
				Price:  5,
				Signal: 1,
				PnL:    0,
			},
		},
	}
}

func setup(t *testing.T, engine Engine) (*echo.Echo, *cache.MemoryCache) {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(mc.Close)

	e := echo.New()
	NewAdmin(engine, mc, time.Minute, logger.Nop()).RegisterRoutes(e)
	return e, mc
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	buf := logger.NewErrorBuffer(8)
	log := logger.Nop().WithErrorBuffer(buf)
	log.Error("quote fetch failed", logger.String("ticker", "AAPL"))

	mc := cache.NewMemoryCache()
	t.Cleanup(mc.Close)
	e := echo.New()
	NewAdmin(&fakeEngine{tickers: []string{"AAPL"}}, mc, time.Minute, log).RegisterRoutes(e)

	rec := get(e, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status       string              `json:"status"`
		Tickers      []string            `json:"tickers"`
		RecentErrors []logger.ErrorEntry `json:"recent_errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"AAPL"}, resp.Tickers)
	require.Len(t, resp.RecentErrors, 1)
	assert.Equal(t, "quote fetch failed", resp.RecentErrors[0].Message)
}

func TestReportEndpoint(t *testing.T) {
	e, mc := setup(t, &fakeEngine{report: testReport(), tickers: []string{"AAPL"}})

	rec := get(e, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows []struct {
			Datetime string  `json:"datetime"`
			Ticker   string  `json:"ticker"`
			Price    float64 `json:"price"`
			Signal   int     `json:"signal"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "2026-08-01-10:15", resp.Rows[0].Datetime)
	assert.Equal(t, 1, resp.Rows[0].Signal)

	// second request is served from the payload cache
	_, ok, err := mc.GetBytes("admin:report")
	require.NoError(t, err)
	assert.True(t, ok)
	rec = get(e, "/api/report")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportEndpointNoReportYet(t *testing.T) {
	e, _ := setup(t, &fakeEngine{})

	rec := get(e, "/api/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTickersEndpoint(t *testing.T) {
	e, _ := setup(t, &fakeEngine{tickers: []string{"AAPL", "MSFT"}})

	rec := get(e, "/api/tickers")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tickers []string `json:"tickers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"AAPL", "MSFT"}, resp.Tickers)
}
