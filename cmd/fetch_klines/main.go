package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ohlcKit/config"
	"ohlcKit/internal/adapters/binanceclient"
	"ohlcKit/internal/adapters/logger"
	"ohlcKit/internal/adapters/sqlite"
	"ohlcKit/internal/app"
	"ohlcKit/internal/fixtures"
	"ohlcKit/internal/utils"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(ctx); err != nil {
		log.Fatalf("FATAL: Binance is unreachable: %v", err)
	}

	// 4. Initialize Repository
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	svc, err := app.NewDataService(appLogger, fixtures.Default(), repo, binanceClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize data service: %v", err)
	}

	// 5. Sync and dump what was fetched
	lookback := time.Duration(cfg.FetchLookbackDays) * 24 * time.Hour
	end, err := binanceClient.GetServerTime(ctx)
	if err != nil {
		appLogger.Warn(ctx, "Falling back to local clock", map[string]interface{}{"error": err.Error()})
		end = time.Now()
	}
	end = end.UTC()
	klines, err := svc.Sync(ctx, cfg.Symbol, cfg.Interval, lookback, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	if len(klines) == 0 {
		appLogger.Info(ctx, "Store already up to date", map[string]interface{}{"symbol": cfg.Symbol, "interval": cfg.Interval})
		return
	}

	if err := os.MkdirAll(cfg.ExportDir, 0755); err != nil {
		log.Fatalf("Error creating export directory: %v", err)
	}
	filename := filepath.Join(cfg.ExportDir, fmt.Sprintf("%s_%s_%s_to_%s.csv",
		cfg.Symbol, cfg.Interval, klines[0].OpenTime.Format("20060102"), end.Format("20060102")))
	if err := utils.WriteKlinesToCSV(klines, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename, "count": len(klines)})
}
