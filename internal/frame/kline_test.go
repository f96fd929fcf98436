package frame

import (
	"testing"
	"time"

	"ohlcKit/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_KlinesRoundTrip(t *testing.T) {
	f := sampleFrame(t)

	klines, err := f.Klines("ETHUSDT", "1d")
	require.NoError(t, err)
	require.Len(t, klines, f.Len())
	for i, k := range klines {
		assert.Equal(t, "ETHUSDT", k.Symbol)
		assert.Equal(t, "1d", k.Interval)
		assert.True(t, k.IsFinal)
		assert.True(t, k.OpenTime.Equal(f.Index[i]))
		assert.Equal(t, f.Index[i].Add(24*time.Hour-time.Millisecond), k.CloseTime)
		assert.True(t, k.IsWellFormed())
	}

	back, err := FromKlines(klines)
	require.NoError(t, err)
	assert.True(t, f.Equal(back))
}

func TestFrame_KlinesCloseTimePerInterval(t *testing.T) {
	f := sampleFrame(t)

	tests := []struct {
		interval string
		span     time.Duration
	}{
		{"1m", time.Minute},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
		{"3d", 72 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		// sampleFrame opens on 2024-03-01 and March has 31 days
		{"1M", 31 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			klines, err := f.Klines("BTCUSDT", tt.interval)
			require.NoError(t, err)
			assert.Equal(t, tt.span-time.Millisecond, klines[0].CloseTime.Sub(klines[0].OpenTime))
		})
	}
}

func TestFrame_KlinesUnknownInterval(t *testing.T) {
	_, err := sampleFrame(t).Klines("BTCUSDT", "2d")
	assert.ErrorIs(t, err, domain.ErrUnknownInterval)
}

func TestFrame_KlinesRaggedColumns(t *testing.T) {
	f := sampleFrame(t)
	f.Low = f.Low[:1]

	_, err := f.Klines("BTCUSDT", "1d")
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFromKlines_NilKline(t *testing.T) {
	_, err := FromKlines([]*domain.Kline{{Open: 1}, nil})
	assert.Error(t, err)
}

func TestFromKlines_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	open := time.Date(2025, 1, 1, 3, 0, 0, 0, loc)

	f, err := FromKlines([]*domain.Kline{{OpenTime: open, Open: 1, High: 2, Low: 1, Close: 2}})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, f.Index[0].Location())
	assert.True(t, f.Index[0].Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}
