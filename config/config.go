package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ohlcKit/internal/adapters/logger" // Import the logger package for LogLevel
	"ohlcKit/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Binance API (optional: klines are public market data)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market data selection
	Symbol            string
	Interval          string
	FetchLookbackDays int

	// Fixtures
	FixtureDir string // Extra YAML fixtures; empty means built-ins only
	ExportDir  string // Destination of CSV exports

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety
	if (cfg.APIKey == "") != (cfg.SecretKey == "") {
		errs = append(errs, "BINANCE_API_KEY and BINANCE_API_SECRET must be set together")
	}

	// Market data selection
	cfg.Symbol = strings.ToUpper(getEnv("SYMBOL", "ETHUSDT"))
	cfg.Interval = getEnv("INTERVAL", "1d")
	if _, err := domain.ParseInterval(cfg.Interval); err != nil {
		errs = append(errs, fmt.Sprintf("unsupported INTERVAL: %v", err))
	}

	cfg.FetchLookbackDays, err = getEnvAsIntRequired("FETCH_LOOKBACK_DAYS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FETCH_LOOKBACK_DAYS: %v", err))
	} else if cfg.FetchLookbackDays <= 0 {
		errs = append(errs, "FETCH_LOOKBACK_DAYS must be positive")
	}

	// Fixtures
	cfg.FixtureDir = getEnv("FIXTURE_DIR", "")
	if cfg.FixtureDir != "" {
		if info, statErr := os.Stat(cfg.FixtureDir); statErr != nil || !info.IsDir() {
			errs = append(errs, fmt.Sprintf("FIXTURE_DIR %q is not a readable directory", cfg.FixtureDir))
		}
	}
	cfg.ExportDir = getEnv("EXPORT_DIR", "./data")

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/ohlc.db")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
