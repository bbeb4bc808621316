// Package report turns strategy output into the long-form trading report,
// persists it as CSV and answers point-in-time queries against it.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"QuantDesk/internal/domain/models"
	"QuantDesk/internal/frame"
	"QuantDesk/internal/strategy"
)

// TimeLayout is the datetime format used in report rows and data queries.
const TimeLayout = "2006-01-02-15:04"

// PartialDataNote trails a query result when some tracked tickers have no
// row at the resolved timestamp.
const PartialDataNote = "some tickets' data for the input time are not available"

// Row is one (time, ticker) observation of the report.
type Row struct {
	Time   time.Time
	Ticker string
	Price  float64
	Signal int
	PnL    float64
}

// Report is the long-form price/signal/pnl table, rows ordered by time then
// ticker column order.
type Report struct {
	Rows    []Row
	Tickers []string
}

// Builder assembles reports from price frames.
type Builder struct {
	momentum *strategy.Momentum
	path     string
}

// NewBuilder creates a Builder persisting to path.
func NewBuilder(momentum *strategy.Momentum, path string) *Builder {
	return &Builder{momentum: momentum, path: path}
}

// Build fills the price frame, runs the momentum pipeline, realigns price and
// signal on the PnL index and rounds price and pnl to two decimals.
func (b *Builder) Build(prices *frame.Frame) *Report {
	filled := prices.Clone()
	filled.Fill()

	signal, px := b.momentum.ComputeSignal(filled)
	pnl := b.momentum.ComputePnL(signal, px)

	px = px.Restrict(pnl.Times)
	signal = signal.Restrict(pnl.Times)

	r := &Report{Tickers: append([]string(nil), pnl.Cols...)}
	for i, t := range pnl.Times {
		for _, ticker := range pnl.Cols {
			r.Rows = append(r.Rows, Row{
				Time:   t,
				Ticker: ticker,
				Price:  round2(px.Data[ticker][i]),
				Signal: int(signal.Data[ticker][i]),
				PnL:    round2(pnl.Data[ticker][i]),
			})
		}
	}
	return r
}

// Persist writes the report as CSV to the builder's path, replacing any
// previous file.
func (b *Builder) Persist(r *Report) error {
	f, err := os.Create(b.path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"datetime", "ticker", "price", "signal", "pnl"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range r.Rows {
		rec := []string{
			row.Time.Format(TimeLayout),
			row.Ticker,
			strconv.FormatFloat(row.Price, 'f', -1, 64),
			strconv.Itoa(row.Signal),
			strconv.FormatFloat(row.PnL, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// Query returns the ticker lines at the latest report time <= asOf. When
// fewer tickers have a row there than are currently tracked, a trailing note
// marks the result as partial. No row at or before asOf means
// models.ErrNoData.
func (r *Report) Query(asOf time.Time, trackedTickers int) ([]string, error) {
	var at time.Time
	found := false
	for _, row := range r.Rows {
		if !row.Time.After(asOf) && (!found || row.Time.After(at)) {
			at = row.Time
			found = true
		}
	}
	if !found {
		return nil, models.ErrNoData
	}

	var lines []string
	for _, row := range r.Rows {
		if row.Time.Equal(at) {
			lines = append(lines, fmt.Sprintf("%s   %s,%d",
				row.Ticker, strconv.FormatFloat(row.Price, 'f', -1, 64), row.Signal))
		}
	}
	if len(lines) < trackedTickers {
		lines = append(lines, PartialDataNote)
	}
	return lines, nil
}

// Empty reports whether the report has no rows.
func (r *Report) Empty() bool { return r == nil || len(r.Rows) == 0 }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
