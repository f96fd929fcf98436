package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ohlcKit/internal/domain"
	"ohlcKit/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// maxKlinesPerRequest is the futures klines endpoint page limit.
	maxKlinesPerRequest = 1500
)

// klinesFetcher pulls one page of klines. Zero start/end are omitted from the request.
type klinesFetcher func(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*futures.Kline, error)

// Client implements the ports.KlineSource interface using the go-binance library.
type Client struct {
	futuresClient        *futures.Client
	fetchKlines          klinesFetcher
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey               string
	SecretKey            string
	UseTestnet           bool
	Logger               ports.Logger
	ReconnectDelay       time.Duration // Delay between retries of a failed page
	MaxReconnectAttempts int           // Max attempts per page before giving up
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty; using public market data endpoints only")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	c := &Client{
		futuresClient:        client,
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
	}
	c.fetchKlines = c.fetchKlinesPage
	return c, nil
}

func (c *Client) fetchKlinesPage(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*futures.Kline, error) {
	svc := c.futuresClient.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	if start > 0 {
		svc = svc.StartTime(start)
	}
	if end > 0 {
		svc = svc.EndTime(end)
	}
	return svc.Do(ctx)
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -1001, -1007: // Disconnected / backend timeout
			mappedErr = ports.ErrExchangeUnavailable
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// retryable reports whether a mapped error is worth another attempt.
func retryable(err error) bool {
	return errors.Is(err, ports.ErrRateLimited) ||
		errors.Is(err, ports.ErrConnectionFailed) ||
		errors.Is(err, ports.ErrExchangeUnavailable)
}

// fetchWithRetry fetches one page, retrying transient failures up to maxReconnectAttempts.
func (c *Client) fetchWithRetry(ctx context.Context, op, symbol, interval string, start, end int64, limit int) ([]*futures.Kline, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxReconnectAttempts; attempt++ {
		page, err := c.fetchKlines(ctx, symbol, interval, start, end, limit)
		if err == nil {
			return page, nil
		}
		lastErr = c.handleError(ctx, err, op)
		if !retryable(lastErr) || attempt == c.maxReconnectAttempts {
			break
		}
		c.logger.Warn(ctx, "Retrying kline request", map[string]interface{}{"operation": op, "attempt": attempt, "delay": c.reconnectDelay.String()})
		select {
		case <-ctx.Done():
			return nil, c.handleError(ctx, ctx.Err(), op)
		case <-time.After(c.reconnectDelay):
		}
	}
	return nil, lastErr
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	err := c.futuresClient.NewPingService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// GetServerTime retrieves the current server time from the exchange.
// Sync uses it to decide which bars have closed.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	op := "GetServerTime"
	serverTimeMs, err := c.futuresClient.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, op)
	}
	return time.UnixMilli(serverTimeMs), nil
}

// GetKlines retrieves the most recent klines for the given symbol.
func (c *Client) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error) {
	op := "GetKlines"
	if limit <= 0 || limit > maxKlinesPerRequest {
		return nil, fmt.Errorf("%s: limit %d out of range 1..%d: %w", op, limit, maxKlinesPerRequest, ports.ErrInvalidRequest)
	}
	binanceKlines, err := c.fetchWithRetry(ctx, op, symbol, interval, 0, 0, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	domainKlines := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateBinanceKline(bk, symbol, interval, now)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w: %w", ports.ErrMalformedData, err), op)
		}
		domainKlines = append(domainKlines, dk)
	}

	return domainKlines, nil
}

// GetKlinesRange fetches all klines for a symbol/interval between start and end time.
func (c *Client) GetKlinesRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Kline, error) {
	op := "GetKlinesRange"
	if !end.After(start) {
		return nil, fmt.Errorf("%s: end %s is not after start %s: %w", op, end.Format(time.RFC3339), start.Format(time.RFC3339), ports.ErrInvalidRequest)
	}

	var allKlines []*domain.Kline
	from := start
	for {
		klines, err := c.fetchWithRetry(ctx, op, symbol, interval, from.UnixMilli(), end.UnixMilli(), maxKlinesPerRequest)
		if err != nil {
			return nil, err
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			dk, err := translateBinanceKline(bk, symbol, interval, end)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline range: %w: %w", ports.ErrMalformedData, err), op)
			}
			allKlines = append(allKlines, dk)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime + 1)
		if from.After(end) || len(klines) < maxKlinesPerRequest {
			break
		}
	}

	c.logger.Debug(ctx, op+" complete", map[string]interface{}{"symbol": symbol, "interval": interval, "count": len(allKlines)})
	return allKlines, nil
}

// translateBinanceKline converts an API kline. It is final when it closed at or before asOf.
func translateBinanceKline(bk *futures.Kline, symbol, interval string, asOf time.Time) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	closeTime := time.UnixMilli(bk.CloseTime).UTC()
	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime).UTC(),
		CloseTime: closeTime,
		Symbol:    symbol,
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		IsFinal:   !closeTime.After(asOf),
	}, nil
}
