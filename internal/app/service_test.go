package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ohlcKit/internal/domain"
	"ohlcKit/internal/fixtures"
	"ohlcKit/internal/frame"
	"ohlcKit/internal/ports"
)

// Mock implementations
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockRepo struct {
	saved     []*domain.Kline
	saveErr   error
	found     []*domain.Kline
	findErr   error
	latest    time.Time
	latestErr error
}

func (m *mockRepo) SaveKlines(ctx context.Context, klines []*domain.Kline) (int, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saved = append(m.saved, klines...)
	return len(klines), nil
}

func (m *mockRepo) FindKlines(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Kline, error) {
	return m.found, m.findErr
}

func (m *mockRepo) LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error) {
	return m.latest, m.latestErr
}

func (m *mockRepo) CountKlines(ctx context.Context, symbol, interval string) (int, error) {
	return len(m.saved), nil
}

func (m *mockRepo) DeleteKlines(ctx context.Context, symbol, interval string) (int64, error) {
	n := int64(len(m.saved))
	m.saved = nil
	return n, nil
}

type mockSource struct {
	klines    []*domain.Kline
	err       error
	gotStart  time.Time
	gotEnd    time.Time
	callCount int
}

func (m *mockSource) Ping(ctx context.Context) error { return nil }

func (m *mockSource) GetServerTime(ctx context.Context) (time.Time, error) { return time.Now(), nil }

func (m *mockSource) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	return m.klines, m.err
}

func (m *mockSource) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	m.callCount++
	m.gotStart, m.gotEnd = start, end
	return m.klines, m.err
}

func fixtureKlines(t *testing.T, symbol, interval string) []*domain.Kline {
	t.Helper()
	klines, err := fixtures.SimpleOHLC().Klines(symbol, interval)
	require.NoError(t, err)
	return klines
}

func newRegistry(t *testing.T) *fixtures.Registry {
	t.Helper()
	r := fixtures.NewRegistry()
	require.NoError(t, r.Register(fixtures.SimpleOHLCName, fixtures.SimpleOHLC))
	require.NoError(t, r.Register("broken", func() *frame.Frame {
		f := fixtures.SimpleOHLC()
		f.Close[2] = 200 // above High
		return f
	}))
	return r
}

func TestNewDataService_MissingDependencies(t *testing.T) {
	_, err := NewDataService(nil, newRegistry(t), &mockRepo{}, nil)
	assert.Error(t, err)
	_, err = NewDataService(&mockLogger{}, nil, &mockRepo{}, nil)
	assert.Error(t, err)
	_, err = NewDataService(&mockLogger{}, newRegistry(t), nil, nil)
	assert.Error(t, err)
}

func TestDataService_ExportCSV(t *testing.T) {
	log := &mockLogger{}
	svc, err := NewDataService(log, newRegistry(t), &mockRepo{}, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "exports")
	path, err := svc.ExportCSV(context.Background(), fixtures.SimpleOHLCName, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "simple_ohlc.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2025-01-05,102,103,101,102.5")
	assert.Contains(t, log.infoMsgs, "Fixture exported")

	_, err = svc.ExportCSV(context.Background(), "missing", dir)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestDataService_ExportCSVRagged(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.Register("ragged", func() *frame.Frame {
		f := fixtures.SimpleOHLC()
		f.Close = f.Close[:4]
		return f
	}))
	svc, err := NewDataService(&mockLogger{}, reg, &mockRepo{}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = svc.ExportCSV(context.Background(), "ragged", dir)
	assert.True(t, errors.Is(err, ports.ErrMalformedData))
	assert.True(t, errors.Is(err, frame.ErrLengthMismatch))
	assert.NoFileExists(t, filepath.Join(dir, "ragged.csv"))
}

func TestDataService_Seed(t *testing.T) {
	repo := &mockRepo{}
	svc, err := NewDataService(&mockLogger{}, newRegistry(t), repo, nil)
	require.NoError(t, err)
	ctx := context.Background()

	n, err := svc.Seed(ctx, fixtures.SimpleOHLCName, "ETHUSDT", "1d")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, repo.saved, 5)
	assert.Equal(t, "ETHUSDT", repo.saved[0].Symbol)
	assert.Equal(t, 100.5, repo.saved[0].Close)

	_, err = svc.Seed(ctx, "broken", "ETHUSDT", "1d")
	assert.True(t, errors.Is(err, ports.ErrMalformedData))
	assert.True(t, errors.Is(err, frame.ErrOHLCOrder))

	repo.saveErr = ports.ErrUpdateFailed
	_, err = svc.Seed(ctx, fixtures.SimpleOHLCName, "ETHUSDT", "1d")
	assert.True(t, errors.Is(err, ports.ErrUpdateFailed))
}

func TestDataService_SeedInterval(t *testing.T) {
	repo := &mockRepo{}
	svc, err := NewDataService(&mockLogger{}, newRegistry(t), repo, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Seed(ctx, fixtures.SimpleOHLCName, "ETHUSDT", "4h")
	require.NoError(t, err)
	require.Len(t, repo.saved, 5)
	assert.Equal(t, 4*time.Hour-time.Millisecond, repo.saved[0].CloseTime.Sub(repo.saved[0].OpenTime))

	_, err = svc.Seed(ctx, fixtures.SimpleOHLCName, "ETHUSDT", "2d")
	assert.True(t, errors.Is(err, ports.ErrInvalidRequest))
	assert.True(t, errors.Is(err, domain.ErrUnknownInterval))
	assert.Len(t, repo.saved, 5)
}

func TestDataService_LoadFrame(t *testing.T) {
	repo := &mockRepo{found: fixtureKlines(t, "ETHUSDT", "1d")}
	svc, err := NewDataService(&mockLogger{}, newRegistry(t), repo, nil)
	require.NoError(t, err)

	f, err := svc.LoadFrame(context.Background(), "ETHUSDT", "1d", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, fixtures.SimpleOHLC().Equal(f))

	repo.found = nil
	_, err = svc.LoadFrame(context.Background(), "ETHUSDT", "1d", time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestDataService_Sync(t *testing.T) {
	now := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	fetched := fixtureKlines(t, "ETHUSDT", "1d")

	tests := []struct {
		name      string
		repo      *mockRepo
		source    *mockSource
		wantStart time.Time
		wantCount int
		wantErr   error
		wantCalls int
	}{
		{
			name:      "empty store uses lookback",
			repo:      &mockRepo{latestErr: ports.ErrNotFound},
			source:    &mockSource{klines: fetched},
			wantStart: now.Add(-5 * 24 * time.Hour),
			wantCount: 5,
			wantCalls: 1,
		},
		{
			name:      "resumes after latest stored kline",
			repo:      &mockRepo{latest: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
			source:    &mockSource{klines: fetched[3:]},
			wantStart: time.Date(2025, 1, 3, 0, 0, 0, int(time.Millisecond), time.UTC),
			wantCount: 2,
			wantCalls: 1,
		},
		{
			name:      "already up to date",
			repo:      &mockRepo{latest: now},
			source:    &mockSource{},
			wantCalls: 0,
		},
		{
			name:      "repository failure",
			repo:      &mockRepo{latestErr: ports.ErrQueryFailed},
			source:    &mockSource{},
			wantErr:   ports.ErrQueryFailed,
			wantCalls: 0,
		},
		{
			name:      "exchange failure",
			repo:      &mockRepo{latestErr: ports.ErrNotFound},
			source:    &mockSource{err: ports.ErrRateLimited},
			wantErr:   ports.ErrRateLimited,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewDataService(&mockLogger{}, newRegistry(t), tt.repo, tt.source)
			require.NoError(t, err)

			klines, err := svc.Sync(context.Background(), "ETHUSDT", "1d", 5*24*time.Hour, now)
			assert.Equal(t, tt.wantCalls, tt.source.callCount)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, klines, tt.wantCount)
			assert.Len(t, tt.repo.saved, tt.wantCount)
			if tt.wantCalls > 0 {
				assert.True(t, tt.source.gotStart.Equal(tt.wantStart), "start %s", tt.source.gotStart)
				assert.True(t, tt.source.gotEnd.Equal(now))
			}
		})
	}
}

func TestDataService_SyncSkipsOpenBar(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2025, 1, d, h, 0, 0, 0, time.UTC) }
	klines := fixtureKlines(t, "ETHUSDT", "1d")

	repo := &mockRepo{latestErr: ports.ErrNotFound}
	source := &mockSource{klines: klines}
	svc, err := NewDataService(&mockLogger{}, newRegistry(t), repo, source)
	require.NoError(t, err)

	// At 06:00 on the 5th, that day's bar is still open.
	synced, err := svc.Sync(context.Background(), "ETHUSDT", "1d", 5*24*time.Hour, day(5, 6))
	require.NoError(t, err)
	require.Len(t, synced, 4)
	assert.True(t, synced[3].OpenTime.Equal(day(4, 0)))
	require.Len(t, repo.saved, 4)

	// The next run resumes right after the 4th and picks the closed bar up.
	repo.latestErr = nil
	repo.latest = day(4, 0)
	source.klines = klines[4:]
	synced, err = svc.Sync(context.Background(), "ETHUSDT", "1d", 5*24*time.Hour, day(6, 12))
	require.NoError(t, err)
	assert.True(t, source.gotStart.Equal(day(4, 0).Add(time.Millisecond)))
	require.Len(t, synced, 1)
	assert.True(t, synced[0].OpenTime.Equal(day(5, 0)))
	assert.Equal(t, 102.5, repo.saved[4].Close)
}

func TestDataService_SyncSkipsMalformedBar(t *testing.T) {
	klines := fixtureKlines(t, "ETHUSDT", "1d")
	klines[1].Low = 150 // above High

	log := &mockLogger{}
	repo := &mockRepo{latestErr: ports.ErrNotFound}
	svc, err := NewDataService(log, newRegistry(t), repo, &mockSource{klines: klines})
	require.NoError(t, err)

	synced, err := svc.Sync(context.Background(), "ETHUSDT", "1d", 5*24*time.Hour, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, synced, 4)
	assert.Len(t, repo.saved, 4)
	assert.Contains(t, log.warnMsgs, "Skipping malformed kline")
}

func TestDataService_SyncWithoutSource(t *testing.T) {
	svc, err := NewDataService(&mockLogger{}, newRegistry(t), &mockRepo{}, nil)
	require.NoError(t, err)
	_, err = svc.Sync(context.Background(), "ETHUSDT", "1d", time.Hour, time.Now())
	assert.True(t, errors.Is(err, ports.ErrConfigurationError))
}

func TestDataService_Indicators(t *testing.T) {
	svc, err := NewDataService(&mockLogger{}, newRegistry(t), &mockRepo{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	values, err := svc.Indicators(ctx, fixtures.SimpleOHLCName, 3)
	require.NoError(t, err)
	assert.InDelta(t, 102.5, values["SMA"], 1e-9)
	assert.InDelta(t, 102.5, values["EMA"], 1e-9)
	assert.InDelta(t, 100-100/(1+8.0/5.0), values["RSI"], 1e-9)
	assert.InDelta(t, 131.0/54.0, values["ATR"], 1e-9)

	// Five rows cover SMA/EMA(5) but not RSI/ATR(5), which need six.
	values, err = svc.Indicators(ctx, fixtures.SimpleOHLCName, 5)
	require.NoError(t, err)
	assert.Len(t, values, 2)
	assert.Contains(t, values, "SMA")
	assert.Contains(t, values, "EMA")

	_, err = svc.Indicators(ctx, fixtures.SimpleOHLCName, 0)
	assert.True(t, errors.Is(err, ports.ErrInvalidRequest))
	_, err = svc.Indicators(ctx, "missing", 3)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}
