// Package frame holds a column-oriented table of OHLC bars keyed by a time index.
package frame

import (
	"errors"
	"fmt"
	"time"
)

// Column names in their canonical order.
const (
	ColumnOpen  = "Open"
	ColumnHigh  = "High"
	ColumnLow   = "Low"
	ColumnClose = "Close"
)

var (
	ErrLengthMismatch = errors.New("column lengths do not match index")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrOHLCOrder      = errors.New("ohlc ordering violated")
	ErrIndexOrder     = errors.New("index is not strictly increasing")
)

// Frame is a table of OHLC prices with one row per index entry.
// All slices have the same length.
type Frame struct {
	Index []time.Time
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
}

// Bar is one row of a Frame.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// New builds a frame from copies of the given slices.
func New(index []time.Time, open, high, low, close []float64) (*Frame, error) {
	f := &Frame{Index: index, Open: open, High: high, Low: low, Close: close}
	if err := f.CheckLengths(); err != nil {
		return nil, err
	}
	return &Frame{
		Index: append([]time.Time(nil), index...),
		Open:  append([]float64(nil), open...),
		High:  append([]float64(nil), high...),
		Low:   append([]float64(nil), low...),
		Close: append([]float64(nil), close...),
	}, nil
}

// DateRange returns periods consecutive calendar days starting at the UTC
// midnight of start's date.
func DateRange(start time.Time, periods int) []time.Time {
	if periods <= 0 {
		return []time.Time{}
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, periods)
	for i := range out {
		out[i] = day.AddDate(0, 0, i)
	}
	return out
}

// Columns returns the column names in order. The slice is fresh on every call.
func (f *Frame) Columns() []string {
	return []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Index)
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	var col []float64
	switch name {
	case ColumnOpen:
		col = f.Open
	case ColumnHigh:
		col = f.High
	case ColumnLow:
		col = f.Low
	case ColumnClose:
		col = f.Close
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return append([]float64(nil), col...), nil
}

// Closes returns a copy of the Close column.
func (f *Frame) Closes() []float64 {
	return append([]float64(nil), f.Close...)
}

// CheckLengths reports ErrLengthMismatch when any column is not as long as the index.
func (f *Frame) CheckLengths() error {
	n := f.Len()
	for _, c := range []struct {
		name string
		col  []float64
	}{{ColumnOpen, f.Open}, {ColumnHigh, f.High}, {ColumnLow, f.Low}, {ColumnClose, f.Close}} {
		if len(c.col) != n {
			return fmt.Errorf("%w: %s has %d values, index has %d", ErrLengthMismatch, c.name, len(c.col), n)
		}
	}
	return nil
}

// Row returns row i.
func (f *Frame) Row(i int) (Bar, error) {
	if err := f.CheckLengths(); err != nil {
		return Bar{}, err
	}
	if i < 0 || i >= f.Len() {
		return Bar{}, fmt.Errorf("row %d out of range [0,%d)", i, f.Len())
	}
	return f.row(i), nil
}

func (f *Frame) row(i int) Bar {
	return Bar{
		Time:  f.Index[i],
		Open:  f.Open[i],
		High:  f.High[i],
		Low:   f.Low[i],
		Close: f.Close[i],
	}
}

// Rows returns every row in index order.
func (f *Frame) Rows() ([]Bar, error) {
	if err := f.CheckLengths(); err != nil {
		return nil, err
	}
	rows := make([]Bar, f.Len())
	for i := range rows {
		rows[i] = f.row(i)
	}
	return rows, nil
}

// Head returns a copy of the first n rows. n is clamped to [0, Len()].
func (f *Frame) Head(n int) (*Frame, error) {
	if err := f.CheckLengths(); err != nil {
		return nil, err
	}
	n = max(0, min(n, f.Len()))
	return New(f.Index[:n], f.Open[:n], f.High[:n], f.Low[:n], f.Close[:n])
}

// Clone returns a deep copy, or nil if the columns are ragged.
func (f *Frame) Clone() *Frame {
	c, _ := New(f.Index, f.Open, f.High, f.Low, f.Close)
	return c
}

// Equal reports whether both frames hold the same index and values.
// A ragged frame is equal to nothing.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Len() != other.Len() || f.CheckLengths() != nil || other.CheckLengths() != nil {
		return false
	}
	for i := 0; i < f.Len(); i++ {
		if !f.Index[i].Equal(other.Index[i]) ||
			f.Open[i] != other.Open[i] || f.High[i] != other.High[i] ||
			f.Low[i] != other.Low[i] || f.Close[i] != other.Close[i] {
			return false
		}
	}
	return true
}

// IsDailyContiguous reports whether every index step is exactly one day.
func (f *Frame) IsDailyContiguous() bool {
	for i := 1; i < f.Len(); i++ {
		if f.Index[i].Sub(f.Index[i-1]) != 24*time.Hour {
			return false
		}
	}
	return true
}
