package frame

import (
	"fmt"
	"time"

	"ohlcKit/internal/domain"
)

// Klines converts each row to a final kline for symbol and interval.
// CloseTime is one millisecond before the next bar opens.
func (f *Frame) Klines(symbol, interval string) ([]*domain.Kline, error) {
	iv, err := domain.ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if err := f.CheckLengths(); err != nil {
		return nil, err
	}
	klines := make([]*domain.Kline, f.Len())
	for i := range klines {
		next, err := iv.Next(f.Index[i])
		if err != nil {
			return nil, err
		}
		klines[i] = &domain.Kline{
			OpenTime:  f.Index[i],
			CloseTime: next.Add(-time.Millisecond),
			Symbol:    symbol,
			Interval:  interval,
			Open:      f.Open[i],
			High:      f.High[i],
			Low:       f.Low[i],
			Close:     f.Close[i],
			IsFinal:   true,
		}
	}
	return klines, nil
}

// FromKlines builds a frame indexed by each kline's open time (in UTC).
func FromKlines(klines []*domain.Kline) (*Frame, error) {
	f := &Frame{
		Index: make([]time.Time, 0, len(klines)),
		Open:  make([]float64, 0, len(klines)),
		High:  make([]float64, 0, len(klines)),
		Low:   make([]float64, 0, len(klines)),
		Close: make([]float64, 0, len(klines)),
	}
	for i, k := range klines {
		if k == nil {
			return nil, fmt.Errorf("kline %d is nil", i)
		}
		f.Index = append(f.Index, k.OpenTime.UTC())
		f.Open = append(f.Open, k.Open)
		f.High = append(f.High, k.High)
		f.Low = append(f.Low, k.Low)
		f.Close = append(f.Close, k.Close)
	}
	return f, nil
}
