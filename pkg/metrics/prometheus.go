package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	commandsTotal  *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	refreshTotal   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	trackedTickers prometheus.Gauge
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		commandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdesk_commands_total",
				Help: "Total number of protocol commands processed",
			},
			[]string{"command", "status"},
		),
		sessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantdesk_sessions_active",
				Help: "Number of currently connected client sessions",
			},
		),
		refreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdesk_refresh_total",
				Help: "Total number of realtime refresh ticks",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantdesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantdesk_last_price",
				Help: "Last observed price for a tracked ticker",
			},
			[]string{"symbol"},
		),
		trackedTickers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantdesk_tracked_tickers",
				Help: "Number of tickers currently tracked",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantdesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCommand counts one processed protocol command.
func (r *Recorder) RecordCommand(command, status string) {
	r.commandsTotal.WithLabelValues(command, status).Inc()
}

// SessionOpened increments the active session gauge.
func (r *Recorder) SessionOpened() {
	r.sessionsActive.Inc()
}

// SessionClosed decrements the active session gauge.
func (r *Recorder) SessionClosed() {
	r.sessionsActive.Dec()
}

// RecordRefresh counts one refresher tick with its outcome.
func (r *Recorder) RecordRefresh(result string) {
	r.refreshTotal.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// DropSymbol removes the last-price series for a ticker no longer tracked.
func (r *Recorder) DropSymbol(symbol string) {
	r.lastPrice.DeleteLabelValues(symbol)
}

// SetTrackedTickers sets the number of tracked tickers.
func (r *Recorder) SetTrackedTickers(n int) {
	r.trackedTickers.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
