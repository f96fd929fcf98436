package main

import (
	"context"
	"flag"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"ohlcKit/config"
	"ohlcKit/internal/adapters/logger"
	"ohlcKit/internal/adapters/sqlite"
	"ohlcKit/internal/app"
	"ohlcKit/internal/fixtures"
)

func main() {
	fixtureName := flag.String("fixture", fixtures.SimpleOHLCName, "Name of the fixture to export or seed")
	exportCSV := flag.Bool("csv", false, "Write the fixture to EXPORT_DIR as CSV")
	seed := flag.Bool("seed", false, "Store the fixture as klines for SYMBOL/INTERVAL in DB_PATH")
	list := flag.Bool("list", false, "List available fixtures")
	period := flag.Int("indicators", 0, "Print SMA/EMA/RSI/ATR with this period for the fixture")
	flag.Parse()

	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Load extra fixtures on top of the built-ins
	registry := fixtures.Default()
	if cfg.FixtureDir != "" {
		if _, err := registry.LoadDir(ctx, cfg.FixtureDir, appLogger); err != nil {
			log.Fatalf("FATAL: Failed to load fixtures from %s: %v", cfg.FixtureDir, err)
		}
	}

	if *list {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return
	}
	if !*exportCSV && !*seed && *period == 0 {
		flag.Usage()
		return
	}

	// 4. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 5. Initialize Application Service
	svc, err := app.NewDataService(appLogger, registry, repo, nil)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize data service: %v", err)
	}

	if *exportCSV {
		path, err := svc.ExportCSV(ctx, *fixtureName, cfg.ExportDir)
		if err != nil {
			appLogger.Error(ctx, err, "Export failed")
			log.Fatalf("FATAL: Export failed: %v", err)
		}
		fmt.Println(path)
	}
	if *seed {
		n, err := svc.Seed(ctx, *fixtureName, cfg.Symbol, cfg.Interval)
		if err != nil {
			appLogger.Error(ctx, err, "Seed failed")
			log.Fatalf("FATAL: Seed failed: %v", err)
		}
		fmt.Printf("seeded %d klines for %s %s\n", n, cfg.Symbol, cfg.Interval)
	}

	if *period != 0 {
		values, err := svc.Indicators(ctx, *fixtureName, *period)
		if err != nil {
			log.Fatalf("FATAL: Indicator calculation failed: %v", err)
		}
		for _, name := range []string{"SMA", "EMA", "RSI", "ATR"} {
			if v, ok := values[name]; ok {
				fmt.Printf("%s(%d) = %.6f\n", name, *period, v)
			}
		}
	}

	appLogger.Info(ctx, "Application finished gracefully.")
}
