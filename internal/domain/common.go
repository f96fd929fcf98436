package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownInterval is returned for interval names outside the exchange set.
var ErrUnknownInterval = errors.New("unknown kline interval")

// Interval names a kline period using exchange notation.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

var fixedIntervals = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval3m:  3 * time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval30m: 30 * time.Minute,
	Interval1h:  time.Hour,
	Interval2h:  2 * time.Hour,
	Interval4h:  4 * time.Hour,
	Interval6h:  6 * time.Hour,
	Interval8h:  8 * time.Hour,
	Interval12h: 12 * time.Hour,
	Interval1d:  24 * time.Hour,
	Interval3d:  3 * 24 * time.Hour,
	Interval1w:  7 * 24 * time.Hour,
}

// ParseInterval checks s against the supported intervals.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if !i.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}
	return i, nil
}

// Valid reports whether the interval is one the exchange serves.
func (i Interval) Valid() bool {
	_, ok := fixedIntervals[i]
	return ok || i == Interval1M
}

// Duration returns the fixed length of the interval. It is 0 for 1M, whose
// length depends on the month, and for unknown intervals.
func (i Interval) Duration() time.Duration {
	return fixedIntervals[i]
}

// Next returns the open time of the bar after the one opening at t.
// Monthly bars advance by calendar month.
func (i Interval) Next(t time.Time) (time.Time, error) {
	if i == Interval1M {
		return t.AddDate(0, 1, 0), nil
	}
	d, ok := fixedIntervals[i]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownInterval, string(i))
	}
	return t.Add(d), nil
}

// String returns the exchange notation of the interval.
func (i Interval) String() string {
	return string(i)
}
