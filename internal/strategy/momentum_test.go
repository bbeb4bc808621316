package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDesk/internal/frame"
)

func ts(min int) time.Time {
	return time.Date(2026, 8, 1, 10, min, 0, 0, time.UTC)
}

func priceFrame(times []time.Time, values []float64) *frame.Frame {
	f := frame.New()
	f.Times = times
	f.Cols = []string{"X"}
	f.Data["X"] = values
	return f
}

func TestRollingStatsDropsShortWindows(t *testing.T) {
	m := New(WithMinRollingPeriods(2))
	f := priceFrame(
		[]time.Time{ts(0), ts(5), ts(10)},
		[]float64{10, 10, 20},
	)

	mean, std, px := m.RollingStats(f)

	// the first row has a single sample and is dropped everywhere
	require.Equal(t, []time.Time{ts(5), ts(10)}, mean.Times)
	require.Equal(t, []time.Time{ts(5), ts(10)}, px.Times)
	assert.InDelta(t, 10.0, mean.Data["X"][0], 1e-9)
	assert.InDelta(t, 0.0, std.Data["X"][0], 1e-9)
	assert.InDelta(t, 40.0/3, mean.Data["X"][1], 1e-9)
	// sample standard deviation, not population
	assert.InDelta(t, math.Sqrt(100.0/3), std.Data["X"][1], 1e-9)
}

func TestRollingStatsWindowExpiry(t *testing.T) {
	m := New(WithRollingPeriod(10*time.Minute), WithMinRollingPeriods(2))
	f := priceFrame(
		[]time.Time{ts(0), ts(5), ts(10), ts(15)},
		[]float64{100, 10, 20, 30},
	)

	mean, _, _ := m.RollingStats(f)

	// at ts(15) the window is (ts(5), ts(15)]: the 100 and 10 samples are out
	last := mean.Data["X"][len(mean.Data["X"])-1]
	assert.InDelta(t, 25.0, last, 1e-9)
}

func TestComputeSignal(t *testing.T) {
	m := New(WithMinRollingPeriods(2))
	f := priceFrame(
		[]time.Time{ts(0), ts(5), ts(10), ts(15), ts(20)},
		[]float64{10, 10, 20, 5, 12},
	)

	signal, px := m.ComputeSignal(f)

	// first row dropped by the sample floor, last raw row dropped by the
	// one-period shift
	require.Equal(t, []time.Time{ts(10), ts(15), ts(20)}, signal.Times)
	require.Equal(t, 4, px.Len())

	// t5: inside the band, no prior signal, flat
	// t10: breakout above mean+std
	// t15: inside the band, carries the +1 forward
	assert.Equal(t, []float64{0, 1, 1}, signal.Data["X"])
}

func TestComputePnL(t *testing.T) {
	m := New(WithMinRollingPeriods(2))
	f := priceFrame(
		[]time.Time{ts(0), ts(5), ts(10), ts(15), ts(20)},
		[]float64{10, 10, 20, 5, 12},
	)

	signal, px := m.ComputeSignal(f)
	pnl := m.ComputePnL(signal, px)

	require.Equal(t, []time.Time{ts(15), ts(20)}, pnl.Times)
	// (5-20)*0, (12-5)*1
	assert.Equal(t, []float64{0, 7}, pnl.Data["X"])
}

func TestComputeSignalTooFewRows(t *testing.T) {
	m := New(WithMinRollingPeriods(2))
	f := priceFrame([]time.Time{ts(0)}, []float64{10})

	signal, px := m.ComputeSignal(f)
	assert.Equal(t, 0, signal.Len())
	assert.Equal(t, 0, px.Len())

	pnl := m.ComputePnL(signal, px)
	assert.Equal(t, 0, pnl.Len())
}
