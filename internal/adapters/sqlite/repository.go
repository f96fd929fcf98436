package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ohlcKit/internal/domain"
	"ohlcKit/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.KlineRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/ohlc.db"
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
		cfg.Logger.Info(context.Background(), "Data directory checked/created", map[string]interface{}{"path": filepath.Dir(dbPath)})
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS klines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		open_time INTEGER NOT NULL, -- unix milliseconds
		close_time INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL DEFAULT 0,
		UNIQUE (symbol, interval, open_time)
	);
	CREATE INDEX IF NOT EXISTS idx_klines_symbol_interval_open_time ON klines (symbol, interval, open_time);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveKlines inserts or replaces klines in a single transaction.
func (r *Repository) SaveKlines(ctx context.Context, klines []*domain.Kline) (int, error) {
	if len(klines) == 0 {
		return 0, nil
	}

	const query = `
	INSERT INTO klines (symbol, interval, open_time, close_time, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (symbol, interval, open_time) DO UPDATE SET
		close_time = excluded.close_time,
		open = excluded.open,
		high = excluded.high,
		low = excluded.low,
		close = excluded.close,
		volume = excluded.volume`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin kline transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare kline upsert: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer stmt.Close()

	for i, k := range klines {
		if k == nil {
			return 0, fmt.Errorf("kline %d is nil: %w", i, ports.ErrInvalidRequest)
		}
		_, err := stmt.ExecContext(ctx,
			k.Symbol, k.Interval, k.OpenTime.UnixMilli(), k.CloseTime.UnixMilli(),
			k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert kline %s %s %s: %w: %w",
				k.Symbol, k.Interval, k.OpenTime.Format(time.RFC3339), ports.ErrUpdateFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit klines: %w: %w", ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Klines saved", map[string]interface{}{"count": len(klines), "symbol": klines[0].Symbol})
	return len(klines), nil
}

// FindKlines retrieves klines with open time in [from, to], ascending.
func (r *Repository) FindKlines(ctx context.Context, symbol, interval string, from, to time.Time) ([]*domain.Kline, error) {
	const query = `
	SELECT symbol, interval, open_time, close_time, open, high, low, close, volume
	FROM klines
	WHERE symbol = ? AND interval = ? AND open_time >= ? AND open_time <= ?
	ORDER BY open_time ASC`

	upper := int64(1<<63 - 1)
	if !to.IsZero() {
		upper = to.UnixMilli()
	}
	lower := int64(0)
	if !from.IsZero() {
		lower = from.UnixMilli()
	}

	rows, err := r.db.QueryContext(ctx, query, symbol, interval, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to query klines for %s %s: %w: %w", symbol, interval, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	klines := make([]*domain.Kline, 0)
	for rows.Next() {
		k, err := scanKline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kline during FindKlines: %w", err)
		}
		klines = append(klines, k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kline rows: %w", err)
	}
	return klines, nil
}

// LatestOpenTime returns the open time of the newest stored kline for the pair.
func (r *Repository) LatestOpenTime(ctx context.Context, symbol, interval string) (time.Time, error) {
	const query = `SELECT MAX(open_time) FROM klines WHERE symbol = ? AND interval = ?`
	var latest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, symbol, interval).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest kline for %s %s: %w: %w", symbol, interval, ports.ErrQueryFailed, err)
	}
	if !latest.Valid {
		return time.Time{}, fmt.Errorf("no klines stored for %s %s: %w", symbol, interval, ports.ErrNotFound)
	}
	return time.UnixMilli(latest.Int64).UTC(), nil
}

// CountKlines counts stored klines for the pair.
func (r *Repository) CountKlines(ctx context.Context, symbol, interval string) (int, error) {
	const query = `SELECT COUNT(*) FROM klines WHERE symbol = ? AND interval = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol, interval).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count klines for %s %s: %w: %w", symbol, interval, ports.ErrQueryFailed, err)
	}
	return count, nil
}

// DeleteKlines removes every kline for the pair.
func (r *Repository) DeleteKlines(ctx context.Context, symbol, interval string) (int64, error) {
	const query = `DELETE FROM klines WHERE symbol = ? AND interval = ?`
	result, err := r.db.ExecContext(ctx, query, symbol, interval)
	if err != nil {
		return 0, fmt.Errorf("failed to delete klines for %s %s: %w: %w", symbol, interval, ports.ErrDeleteFailed, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for delete %s %s: %w", symbol, interval, err)
	}
	r.logger.Debug(ctx, "Klines deleted", map[string]interface{}{"symbol": symbol, "interval": interval, "count": n})
	return n, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanKline scans a row into a domain.Kline struct.
func scanKline(s scanner) (*domain.Kline, error) {
	k := &domain.Kline{IsFinal: true}
	var openMs, closeMs int64
	err := s.Scan(&k.Symbol, &k.Interval, &openMs, &closeMs, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	k.OpenTime = time.UnixMilli(openMs).UTC()
	k.CloseTime = time.UnixMilli(closeMs).UTC()
	return k, nil
}
