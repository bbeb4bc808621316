// Package strategy implements the momentum signal and PnL calculations over
// a filled price frame.
package strategy

import (
	"math"
	"time"

	"QuantDesk/internal/frame"
)

const (
	defaultRollingPeriod     = 24 * time.Hour
	defaultMinRollingPeriods = 15
)

// Momentum computes trailing-window rolling statistics, a band breakout
// signal and the resulting per-period PnL.
type Momentum struct {
	rollingPeriod     time.Duration
	minRollingPeriods int
}

// Option configures Momentum.
type Option func(*Momentum)

// WithRollingPeriod overrides the trailing window length.
func WithRollingPeriod(d time.Duration) Option {
	return func(m *Momentum) { m.rollingPeriod = d }
}

// WithMinRollingPeriods overrides the minimum samples per window.
func WithMinRollingPeriods(n int) Option {
	return func(m *Momentum) { m.minRollingPeriods = n }
}

// New returns a Momentum with the standard 24h window and 15-sample floor.
func New(opts ...Option) *Momentum {
	m := &Momentum{
		rollingPeriod:     defaultRollingPeriod,
		minRollingPeriods: defaultMinRollingPeriods,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RollingStats computes the trailing rolling mean and sample standard
// deviation per column, drops every row where any column has fewer than the
// minimum samples in its window, and returns the price frame restricted to
// the surviving index.
func (m *Momentum) RollingStats(prices *frame.Frame) (mean, std, price *frame.Frame) {
	n := prices.Len()
	mean = &frame.Frame{Cols: append([]string(nil), prices.Cols...), Data: make(map[string][]float64)}
	std = &frame.Frame{Cols: append([]string(nil), prices.Cols...), Data: make(map[string][]float64)}

	drop := make([]bool, n)
	for _, col := range prices.Cols {
		v := prices.Data[col]
		means := make([]float64, n)
		stds := make([]float64, n)

		// sliding window over (t - period, t]
		lo := 0
		var sum, sumSq float64
		for i := 0; i < n; i++ {
			sum += v[i]
			sumSq += v[i] * v[i]
			cutoff := prices.Times[i].Add(-m.rollingPeriod)
			for !prices.Times[lo].After(cutoff) {
				sum -= v[lo]
				sumSq -= v[lo] * v[lo]
				lo++
			}
			count := i - lo + 1
			if count < m.minRollingPeriods {
				means[i], stds[i] = math.NaN(), math.NaN()
				drop[i] = true
				continue
			}
			fc := float64(count)
			mu := sum / fc
			variance := (sumSq - sum*sum/fc) / (fc - 1)
			if variance < 0 {
				variance = 0
			}
			means[i] = mu
			stds[i] = math.Sqrt(variance)
		}
		mean.Data[col] = means
		std.Data[col] = stds
	}

	var keep []time.Time
	for i, t := range prices.Times {
		if !drop[i] {
			keep = append(keep, t)
		}
	}
	mean.Times = prices.Times
	std.Times = prices.Times
	mean = mean.Restrict(keep)
	std = std.Restrict(keep)
	price = prices.Restrict(keep)
	return mean, std, price
}

// ComputeSignal derives the trading signal from a filled price frame.
//
// The raw signal at time t is +1 when price breaks above mean+std, -1 below
// mean-std, and undefined inside the band. It applies to the next period, so
// the last row is dropped and the values are reindexed one step forward.
// Undefined cells carry the previous signal forward; leading undefined cells
// are flat. The returned price frame keeps one more row than the signal.
func (m *Momentum) ComputeSignal(prices *frame.Frame) (signal, price *frame.Frame) {
	mean, std, px := m.RollingStats(prices)
	n := px.Len()
	if n < 2 {
		empty := &frame.Frame{Cols: append([]string(nil), px.Cols...), Data: make(map[string][]float64)}
		for _, col := range empty.Cols {
			empty.Data[col] = nil
		}
		return empty, px
	}

	signal = &frame.Frame{
		Times: append([]time.Time(nil), px.Times[1:]...),
		Cols:  append([]string(nil), px.Cols...),
		Data:  make(map[string][]float64, len(px.Cols)),
	}
	for _, col := range px.Cols {
		p, mu, sd := px.Data[col], mean.Data[col], std.Data[col]
		raw := make([]float64, n-1)
		for i := 0; i < n-1; i++ {
			switch {
			case p[i] > mu[i]+sd[i]:
				raw[i] = 1
			case p[i] < mu[i]-sd[i]:
				raw[i] = -1
			default:
				raw[i] = math.NaN()
			}
		}
		for i := 1; i < len(raw); i++ {
			if math.IsNaN(raw[i]) {
				raw[i] = raw[i-1]
			}
		}
		for i := range raw {
			if math.IsNaN(raw[i]) {
				raw[i] = 0
			}
		}
		signal.Data[col] = raw
	}
	return signal, px
}

// ComputePnL computes (price(t+1) - price(t)) * signal(t). price carries one
// more row than signal; the result is indexed from the third price row on.
func (m *Momentum) ComputePnL(signal, price *frame.Frame) *frame.Frame {
	n := price.Len()
	pnl := &frame.Frame{Cols: append([]string(nil), price.Cols...), Data: make(map[string][]float64)}
	if n < 3 {
		for _, col := range pnl.Cols {
			pnl.Data[col] = nil
		}
		return pnl
	}

	pnl.Times = append([]time.Time(nil), price.Times[2:]...)
	for _, col := range price.Cols {
		p := price.Data[col]
		sig := signal.Data[col]
		out := make([]float64, n-2)
		for k := 0; k < n-2; k++ {
			out[k] = (p[k+2] - p[k+1]) * sig[k]
		}
		pnl.Data[col] = out
	}
	return pnl
}
