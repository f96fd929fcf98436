// Package indicators computes technical indicators over OHLC frames.
package indicators

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ohlcKit/internal/frame"
)

var (
	ErrInvalidPeriod    = errors.New("indicator period must be positive")
	ErrInsufficientData = errors.New("not enough rows for indicator")
)

// Indicator reduces a frame to one value taken at its last row.
type Indicator interface {
	// Name returns the short name of the indicator, e.g. "SMA".
	Name() string

	// Lookback returns the minimum number of rows Calculate needs.
	Lookback() int

	Calculate(ctx context.Context, f *frame.Frame) (float64, error)
}

// Standard returns SMA, EMA, RSI and ATR sharing one period.
func Standard(period int) []Indicator {
	return []Indicator{NewSMA(period), NewEMA(period), NewRSI(period), NewATR(period)}
}

// checkInput rejects bad periods, ragged frames and frames shorter than the lookback.
func checkInput(ind Indicator, period int, f *frame.Frame) error {
	if period <= 0 {
		return fmt.Errorf("%s: %w: %d", ind.Name(), ErrInvalidPeriod, period)
	}
	if f == nil {
		return fmt.Errorf("%s: nil frame", ind.Name())
	}
	if err := f.CheckLengths(); err != nil {
		return fmt.Errorf("%s: %w", ind.Name(), err)
	}
	if f.Len() < ind.Lookback() {
		return fmt.Errorf("%s(%d): %w: have %d, need %d", ind.Name(), period, ErrInsufficientData, f.Len(), ind.Lookback())
	}
	return nil
}

// Series evaluates ind at every row of f. Rows before the lookback is met are NaN.
func Series(ctx context.Context, ind Indicator, f *frame.Frame) ([]float64, error) {
	if err := f.CheckLengths(); err != nil {
		return nil, err
	}
	out := make([]float64, f.Len())
	for i := range out {
		if i+1 < ind.Lookback() {
			out[i] = math.NaN()
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		head, err := f.Head(i + 1)
		if err != nil {
			return nil, err
		}
		v, err := ind.Calculate(ctx, head)
		if err != nil {
			return nil, fmt.Errorf("%s at row %d: %w", ind.Name(), i, err)
		}
		out[i] = v
	}
	return out, nil
}

func mean(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}
