package indicators

import (
	"context"

	"ohlcKit/internal/frame"
)

// SMA is the simple moving average of the last Period closes.
type SMA struct {
	Period int
}

func NewSMA(period int) *SMA { return &SMA{Period: period} }

func (s *SMA) Name() string  { return "SMA" }
func (s *SMA) Lookback() int { return s.Period }

// Calculate averages the trailing Period closes.
func (s *SMA) Calculate(ctx context.Context, f *frame.Frame) (float64, error) {
	if err := checkInput(s, s.Period, f); err != nil {
		return 0, err
	}
	closes := f.Closes()
	return mean(closes[len(closes)-s.Period:]), nil
}

// EMA is the exponential moving average of closes with smoothing 2/(Period+1),
// seeded with the SMA of the first Period closes.
type EMA struct {
	Period int
}

func NewEMA(period int) *EMA { return &EMA{Period: period} }

func (e *EMA) Name() string  { return "EMA" }
func (e *EMA) Lookback() int { return e.Period }

// Calculate returns the EMA at the last row.
func (e *EMA) Calculate(ctx context.Context, f *frame.Frame) (float64, error) {
	if err := checkInput(e, e.Period, f); err != nil {
		return 0, err
	}
	closes := f.Closes()
	k := 2.0 / float64(e.Period+1)
	ema := mean(closes[:e.Period])
	for _, c := range closes[e.Period:] {
		ema += (c - ema) * k
	}
	return ema, nil
}
