package indicators

import (
	"context"
	"math"

	"ohlcKit/internal/frame"
)

// ATR is the average true range using Wilder's smoothing.
type ATR struct {
	Period int
}

func NewATR(period int) *ATR { return &ATR{Period: period} }

func (a *ATR) Name() string { return "ATR" }

// Lookback is Period+1: each true range after the first needs the previous close.
func (a *ATR) Lookback() int { return a.Period + 1 }

// Calculate returns the ATR at the last row.
func (a *ATR) Calculate(ctx context.Context, f *frame.Frame) (float64, error) {
	if err := checkInput(a, a.Period, f); err != nil {
		return 0, err
	}
	high, err := f.Column(frame.ColumnHigh)
	if err != nil {
		return 0, err
	}
	low, err := f.Column(frame.ColumnLow)
	if err != nil {
		return 0, err
	}
	closes := f.Closes()

	tr := make([]float64, len(closes))
	tr[0] = high[0] - low[0]
	for i := 1; i < len(tr); i++ {
		prev := closes[i-1]
		tr[i] = max(high[i]-low[i], math.Abs(high[i]-prev), math.Abs(low[i]-prev))
	}

	p := float64(a.Period)
	atr := mean(tr[:a.Period])
	for _, v := range tr[a.Period:] {
		atr = (atr*(p-1) + v) / p
	}
	return atr, nil
}
