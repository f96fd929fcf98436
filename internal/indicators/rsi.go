package indicators

import (
	"context"

	"ohlcKit/internal/frame"
)

// RSI is the relative strength index of closes using Wilder's smoothing.
type RSI struct {
	Period int
}

func NewRSI(period int) *RSI { return &RSI{Period: period} }

func (r *RSI) Name() string { return "RSI" }

// Lookback is Period+1: RSI works on close-to-close changes.
func (r *RSI) Lookback() int { return r.Period + 1 }

// Calculate returns the RSI at the last row, in [0, 100]. A flat series gives 50.
func (r *RSI) Calculate(ctx context.Context, f *frame.Frame) (float64, error) {
	if err := checkInput(r, r.Period, f); err != nil {
		return 0, err
	}
	closes := f.Closes()
	p := float64(r.Period)

	var gain, loss float64
	for i := 1; i <= r.Period; i++ {
		d := closes[i] - closes[i-1]
		gain += max(d, 0)
		loss += max(-d, 0)
	}
	gain /= p
	loss /= p

	for i := r.Period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain = (gain*(p-1) + max(d, 0)) / p
		loss = (loss*(p-1) + max(-d, 0)) / p
	}

	switch {
	case loss == 0 && gain == 0:
		return 50, nil
	case loss == 0:
		return 100, nil
	}
	return 100 - 100/(1+gain/loss), nil
}
