// Package fixtures provides canned price frames for tests and tooling.
package fixtures

import (
	"time"

	"ohlcKit/internal/frame"
)

// SimpleOHLCName is the registry name of SimpleOHLC.
const SimpleOHLCName = "simple_ohlc"

// SimpleOHLC returns five daily bars starting 2025-01-01.
// Every call builds a new frame, so callers may mutate the result freely.
func SimpleOHLC() *frame.Frame {
	return &frame.Frame{
		Index: frame.DateRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 5),
		Open:  []float64{100, 102, 101, 103, 102},
		High:  []float64{101, 103, 102, 104, 103},
		Low:   []float64{99, 101, 100, 102, 101},
		Close: []float64{100.5, 102.5, 101.5, 103.5, 102.5},
	}
}
