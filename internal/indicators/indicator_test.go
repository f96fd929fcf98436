package indicators

import (
	"context"
	"math"
	"testing"
	"time"

	"ohlcKit/internal/fixtures"
	"ohlcKit/internal/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeFrame builds a daily frame whose bars are flat at each close.
func closeFrame(t *testing.T, closes ...float64) *frame.Frame {
	t.Helper()
	f, err := frame.New(frame.DateRange(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), len(closes)), closes, closes, closes, closes)
	require.NoError(t, err)
	return f
}

func TestSeries_SMA(t *testing.T) {
	values, err := Series(context.Background(), NewSMA(2), fixtures.SimpleOHLC())
	require.NoError(t, err)
	require.Len(t, values, 5)

	assert.True(t, math.IsNaN(values[0]))
	assert.Equal(t, []float64{101.5, 102, 102.5, 103}, values[1:])
}

func TestSeries_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Series(ctx, NewRSI(2), fixtures.SimpleOHLC())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeries_RaggedFrame(t *testing.T) {
	f := fixtures.SimpleOHLC()
	f.High = f.High[:3]

	_, err := Series(context.Background(), NewSMA(2), f)
	assert.ErrorIs(t, err, frame.ErrLengthMismatch)
}

func TestStandard(t *testing.T) {
	var names []string
	for _, ind := range Standard(3) {
		names = append(names, ind.Name())
	}
	assert.Equal(t, []string{"SMA", "EMA", "RSI", "ATR"}, names)
}

func TestIndicators_InputChecks(t *testing.T) {
	ctx := context.Background()

	for _, ind := range Standard(0) {
		t.Run(ind.Name()+" zero period", func(t *testing.T) {
			_, err := ind.Calculate(ctx, fixtures.SimpleOHLC())
			assert.ErrorIs(t, err, ErrInvalidPeriod)
		})
	}

	for _, ind := range Standard(6) {
		t.Run(ind.Name()+" short frame", func(t *testing.T) {
			_, err := ind.Calculate(ctx, fixtures.SimpleOHLC())
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}

	ragged := fixtures.SimpleOHLC()
	ragged.Low = ragged.Low[:1]
	for _, ind := range Standard(2) {
		t.Run(ind.Name()+" ragged frame", func(t *testing.T) {
			_, err := ind.Calculate(ctx, ragged)
			assert.ErrorIs(t, err, frame.ErrLengthMismatch)
		})
	}
}
