package domain

import "time"

// Kline represents a single candlestick data point.
type Kline struct {
	OpenTime  time.Time // Start time of the interval
	CloseTime time.Time // End time of the interval
	Symbol    string    // Trading symbol
	Interval  string    // Kline interval (e.g., "1m", "1d")
	Open      float64   // Opening price
	High      float64   // Highest price
	Low       float64   // Lowest price
	Close     float64   // Closing price
	Volume    float64   // Trading volume
	IsFinal   bool      // Whether this kline is the final one for the interval
}

// IsWellFormed reports whether Low <= Open, Close <= High holds for the kline.
func (k *Kline) IsWellFormed() bool {
	return k.Low <= k.Open && k.Open <= k.High &&
		k.Low <= k.Close && k.Close <= k.High
}
