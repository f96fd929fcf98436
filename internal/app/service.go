package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ohlcKit/internal/domain"
	"ohlcKit/internal/frame"
	"ohlcKit/internal/indicators"
	"ohlcKit/internal/ports"
	"ohlcKit/internal/utils"
)

// FixtureSource resolves named frames. *fixtures.Registry satisfies it.
type FixtureSource interface {
	Get(name string) (*frame.Frame, error)
	Names() []string
}

// DataService moves OHLC frames between fixtures, CSV files, the kline store and the exchange.
type DataService struct {
	logger   ports.Logger
	fixtures FixtureSource
	repo     ports.KlineRepository
	source   ports.KlineSource // optional; only Sync needs it
}

// NewDataService creates a new application service instance.
// source may be nil when no exchange access is needed.
func NewDataService(logger ports.Logger, fixtures FixtureSource, repo ports.KlineRepository, source ports.KlineSource) (*DataService, error) {
	if logger == nil || fixtures == nil || repo == nil {
		return nil, fmt.Errorf("missing required dependencies for DataService")
	}
	return &DataService{
		logger:   logger,
		fixtures: fixtures,
		repo:     repo,
		source:   source,
	}, nil
}

// Fixtures lists the available fixture names.
func (s *DataService) Fixtures() []string {
	return s.fixtures.Names()
}

// ExportCSV writes the named fixture to <dir>/<name>.csv and returns the path.
func (s *DataService) ExportCSV(ctx context.Context, name, dir string) (string, error) {
	f, err := s.fixtures.Get(name)
	if err != nil {
		return "", fmt.Errorf("export %q: %w: %w", name, ports.ErrNotFound, err)
	}
	if err := f.CheckLengths(); err != nil {
		return "", fmt.Errorf("export %q: %w: %w", name, ports.ErrMalformedData, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory '%s': %w", dir, err)
	}

	path := filepath.Join(dir, name+".csv")
	if err := utils.WriteFrameCSVFile(f, path); err != nil {
		s.logger.Error(ctx, err, "Failed to write fixture CSV", map[string]interface{}{"fixture": name, "path": path})
		return "", fmt.Errorf("export %q to %s: %w", name, path, err)
	}
	s.logger.Info(ctx, "Fixture exported", map[string]interface{}{"fixture": name, "path": path, "rows": f.Len()})
	return path, nil
}

// Seed validates the named fixture and stores it as klines for symbol and interval.
func (s *DataService) Seed(ctx context.Context, name, symbol, interval string) (int, error) {
	f, err := s.fixtures.Get(name)
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w: %w", name, ports.ErrNotFound, err)
	}
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("seed %q: %w: %w", name, ports.ErrMalformedData, err)
	}

	klines, err := f.Klines(symbol, interval)
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w: %w", name, ports.ErrInvalidRequest, err)
	}
	n, err := s.repo.SaveKlines(ctx, klines)
	if err != nil {
		return 0, fmt.Errorf("seed %q: %w", name, err)
	}
	s.logger.Info(ctx, "Fixture seeded", map[string]interface{}{"fixture": name, "symbol": symbol, "interval": interval, "rows": n})
	return n, nil
}

// LoadFrame reads stored klines in [from, to] back into a frame.
func (s *DataService) LoadFrame(ctx context.Context, symbol, interval string, from, to time.Time) (*frame.Frame, error) {
	klines, err := s.repo.FindKlines(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("no klines for %s %s: %w", symbol, interval, ports.ErrNotFound)
	}
	return frame.FromKlines(klines)
}

// Sync pulls klines newer than the latest stored one (or the last lookback
// window when nothing is stored) and saves them. Bars still open at now and
// bars breaking Low <= Open, Close <= High are not stored, so a later Sync
// fetches them again. It returns the klines written.
func (s *DataService) Sync(ctx context.Context, symbol, interval string, lookback time.Duration, now time.Time) ([]*domain.Kline, error) {
	if s.source == nil {
		return nil, fmt.Errorf("sync requires an exchange source: %w", ports.ErrConfigurationError)
	}

	start := now.Add(-lookback)
	latest, err := s.repo.LatestOpenTime(ctx, symbol, interval)
	switch {
	case err == nil:
		start = latest.Add(time.Millisecond)
	case errors.Is(err, ports.ErrNotFound):
		s.logger.Debug(ctx, "No stored klines, using lookback window", map[string]interface{}{"symbol": symbol, "lookback": lookback.String()})
	default:
		return nil, err
	}
	if !now.After(start) {
		return nil, nil
	}

	fetched, err := s.source.GetKlinesRange(ctx, symbol, interval, start, now)
	if err != nil {
		return nil, fmt.Errorf("sync %s %s: %w", symbol, interval, err)
	}

	klines := make([]*domain.Kline, 0, len(fetched))
	for _, k := range fetched {
		switch {
		case k == nil:
			continue
		case k.CloseTime.After(now):
			s.logger.Debug(ctx, "Skipping open kline", map[string]interface{}{"symbol": symbol, "openTime": k.OpenTime.Format(time.RFC3339)})
		case !k.IsWellFormed():
			s.logger.Warn(ctx, "Skipping malformed kline", map[string]interface{}{"symbol": symbol, "openTime": k.OpenTime.Format(time.RFC3339)})
		default:
			klines = append(klines, k)
		}
	}
	if len(klines) == 0 {
		return nil, nil
	}

	if _, err := s.repo.SaveKlines(ctx, klines); err != nil {
		return nil, fmt.Errorf("sync %s %s: %w", symbol, interval, err)
	}
	s.logger.Info(ctx, "Klines synced", map[string]interface{}{"symbol": symbol, "interval": interval, "count": len(klines), "from": start.Format(time.RFC3339)})
	return klines, nil
}

// Indicators evaluates SMA, EMA, RSI and ATR with the given period over the
// named fixture. Indicators the fixture is too short for are omitted.
func (s *DataService) Indicators(ctx context.Context, name string, period int) (map[string]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period %d must be positive: %w", period, ports.ErrInvalidRequest)
	}
	f, err := s.fixtures.Get(name)
	if err != nil {
		return nil, fmt.Errorf("indicators %q: %w: %w", name, ports.ErrNotFound, err)
	}

	all := indicators.Standard(period)
	out := make(map[string]float64, len(all))
	for _, ind := range all {
		if f.Len() < ind.Lookback() {
			s.logger.Debug(ctx, "Skipping indicator, not enough rows", map[string]interface{}{"indicator": ind.Name(), "rows": f.Len(), "required": ind.Lookback()})
			continue
		}
		v, err := ind.Calculate(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("indicators %q: %w", name, err)
		}
		out[ind.Name()] = v
	}
	return out, nil
}
