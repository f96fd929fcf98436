package ports

import (
	"context"
	"time"

	"ohlcKit/internal/domain"
)

// KlineRepository defines the interface for storing and retrieving candlestick data.
type KlineRepository interface {
	// SaveKlines inserts or replaces klines keyed by (symbol, interval, open time).
	// Returns the number of rows written.
	SaveKlines(ctx context.Context, klines []*domain.Kline) (int, error)
	// FindKlines retrieves klines with open time in [from, to], ascending.
	// A zero to means no upper bound.
	FindKlines(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Kline, error)
	// LatestOpenTime returns the open time of the newest stored kline.
	// Returns ErrNotFound if nothing is stored for the pair.
	LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error)
	// CountKlines counts stored klines for the pair.
	CountKlines(ctx context.Context, symbol, interval string) (int, error)
	// DeleteKlines removes every kline for the pair and returns the number deleted.
	DeleteKlines(ctx context.Context, symbol, interval string) (int64, error)
}
