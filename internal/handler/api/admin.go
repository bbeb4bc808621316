// Package api exposes the admin/observability HTTP surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"QuantDesk/internal/report"
	"QuantDesk/pkg/cache"
	"QuantDesk/pkg/logger"
)

const reportCacheKey = "admin:report"

// Engine is the analytics surface the admin API reads from.
type Engine interface {
	LatestReport() *report.Report
	Tickers() []string
}

// Admin serves /healthz, /api/report and /api/tickers.
type Admin struct {
	engine    Engine
	payloads  cache.BytesCache
	cacheTTL  time.Duration
	log       *logger.Logger
	startedAt time.Time
}

// NewAdmin creates the admin handler. payloads caches the serialized report
// response for cacheTTL.
func NewAdmin(engine Engine, payloads cache.BytesCache, cacheTTL time.Duration, log *logger.Logger) *Admin {
	return &Admin{
		engine:    engine,
		payloads:  payloads,
		cacheTTL:  cacheTTL,
		log:       log,
		startedAt: time.Now(),
	}
}

// RegisterRoutes mounts the admin routes on e.
func (a *Admin) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.health)
	e.GET("/api/report", a.reportHandler)
	e.GET("/api/tickers", a.tickers)
}

type healthResponse struct {
	Status        string               `json:"status"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Tickers       []string             `json:"tickers"`
	RecentErrors  []logger.ErrorEntry  `json:"recent_errors,omitempty"`
}

func (a *Admin) health(c echo.Context) error {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
		Tickers:       a.engine.Tickers(),
	}
	if buf := a.log.Buffer(); buf != nil {
		resp.RecentErrors = buf.Snapshot()
	}
	return c.JSON(http.StatusOK, resp)
}

type reportRow struct {
	Datetime string  `json:"datetime"`
	Ticker   string  `json:"ticker"`
	Price    float64 `json:"price"`
	Signal   int     `json:"signal"`
	PnL      float64 `json:"pnl"`
}

func (a *Admin) reportHandler(c echo.Context) error {
	if payload, ok, err := a.payloads.GetBytes(reportCacheKey); err == nil && ok {
		return c.JSONBlob(http.StatusOK, payload)
	} else if err != nil {
		a.log.Warn("report cache read failed", logger.Error(err))
	}

	r := a.engine.LatestReport()
	if r.Empty() {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no report generated yet"})
	}

	rows := make([]reportRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, reportRow{
			Datetime: row.Time.Format(report.TimeLayout),
			Ticker:   row.Ticker,
			Price:    row.Price,
			Signal:   row.Signal,
			PnL:      row.PnL,
		})
	}

	payload, err := json.Marshal(map[string]interface{}{"rows": rows})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "encode report")
	}
	if err := a.payloads.SetBytes(reportCacheKey, payload, a.cacheTTL); err != nil {
		a.log.Warn("report cache write failed", logger.Error(err))
	}
	return c.JSONBlob(http.StatusOK, payload)
}

func (a *Admin) tickers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"tickers": a.engine.Tickers()})
}
