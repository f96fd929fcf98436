package ports

import (
	"context"
	"time"

	"ohlcKit/internal/domain"
)

// KlineSource defines the interface for pulling historical candlestick data from an exchange.
// This abstraction allows decoupling the tooling from specific exchange implementations.
type KlineSource interface {
	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)

	// GetKlines retrieves the most recent klines for the given symbol, up to limit.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)

	// GetKlinesRange retrieves all klines for the symbol between start and end.
	GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error)
}
