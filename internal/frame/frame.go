// Package frame provides a minimal time-indexed numeric table used by the
// analytics pipeline. Missing cells are NaN; the index is ascending and
// deduplicated.
package frame

import (
	"math"
	"sort"
	"time"

	"QuantDesk/internal/domain/models"
)

// Frame is a column-major table indexed by timestamp.
type Frame struct {
	Times []time.Time
	Cols  []string
	Data  map[string][]float64
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{Data: make(map[string][]float64)}
}

// FromSeries outer-joins the given per-ticker series on timestamp. The
// resulting index is the sorted union of all sample times; cells with no
// sample are NaN.
func FromSeries(series []models.Series) *Frame {
	seen := make(map[int64]struct{})
	var times []time.Time
	for _, s := range series {
		for _, p := range s.Points {
			k := p.Time.UnixNano()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			times = append(times, p.Time)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	idx := make(map[int64]int, len(times))
	for i, t := range times {
		idx[t.UnixNano()] = i
	}

	f := &Frame{Times: times, Data: make(map[string][]float64, len(series))}
	for _, s := range series {
		col := nanSlice(len(times))
		for _, p := range s.Points {
			col[idx[p.Time.UnixNano()]] = p.Price
		}
		f.Cols = append(f.Cols, s.Ticker)
		f.Data[s.Ticker] = col
	}
	return f
}

// Fill closes gaps per column: forward fill first, so a missing cell takes
// the previous value and no later price leaks backward, then backward fill
// so leading gaps take the first observed value.
func (f *Frame) Fill() {
	for _, col := range f.Cols {
		v := f.Data[col]
		for i := 1; i < len(v); i++ {
			if math.IsNaN(v[i]) {
				v[i] = v[i-1]
			}
		}
		for i := len(v) - 2; i >= 0; i-- {
			if math.IsNaN(v[i]) {
				v[i] = v[i+1]
			}
		}
	}
}

// AppendRow adds a row at t with the given per-column values. Columns absent
// from values get NaN. t must be strictly after the current last index entry.
func (f *Frame) AppendRow(t time.Time, values map[string]float64) {
	f.Times = append(f.Times, t)
	for _, col := range f.Cols {
		v, ok := values[col]
		if !ok {
			v = math.NaN()
		}
		f.Data[col] = append(f.Data[col], v)
	}
}

// AddColumn joins a new series as a column over the existing index. Index
// entries without a sample are NaN; samples at times outside the index are
// dropped.
func (f *Frame) AddColumn(s models.Series) {
	idx := make(map[int64]int, len(f.Times))
	for i, t := range f.Times {
		idx[t.UnixNano()] = i
	}
	col := nanSlice(len(f.Times))
	for _, p := range s.Points {
		if i, ok := idx[p.Time.UnixNano()]; ok {
			col[i] = p.Price
		}
	}
	f.Cols = append(f.Cols, s.Ticker)
	f.Data[s.Ticker] = col
}

// DropColumn removes a column if present.
func (f *Frame) DropColumn(name string) {
	for i, c := range f.Cols {
		if c == name {
			f.Cols = append(f.Cols[:i], f.Cols[i+1:]...)
			delete(f.Data, name)
			return
		}
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Times: append([]time.Time(nil), f.Times...),
		Cols:  append([]string(nil), f.Cols...),
		Data:  make(map[string][]float64, len(f.Data)),
	}
	for name, v := range f.Data {
		c.Data[name] = append([]float64(nil), v...)
	}
	return c
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Times) }

// LastTime returns the newest index entry, or the zero time when empty.
func (f *Frame) LastTime() time.Time {
	if len(f.Times) == 0 {
		return time.Time{}
	}
	return f.Times[len(f.Times)-1]
}

// Restrict returns a copy containing only the rows at the given times. Times
// must be a subsequence of the frame's index.
func (f *Frame) Restrict(times []time.Time) *Frame {
	keep := make(map[int64]struct{}, len(times))
	for _, t := range times {
		keep[t.UnixNano()] = struct{}{}
	}
	c := &Frame{Cols: append([]string(nil), f.Cols...), Data: make(map[string][]float64, len(f.Data))}
	var rows []int
	for i, t := range f.Times {
		if _, ok := keep[t.UnixNano()]; ok {
			c.Times = append(c.Times, t)
			rows = append(rows, i)
		}
	}
	for _, name := range f.Cols {
		src := f.Data[name]
		dst := make([]float64, 0, len(rows))
		for _, i := range rows {
			dst = append(dst, src[i])
		}
		c.Data[name] = dst
	}
	return c
}

func nanSlice(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}
