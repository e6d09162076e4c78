// Package db persists studio session notices in SQLite through GORM.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	maxOpenConns       = 25
	maxIdleConns       = 5
	connMaxLifetime    = 5 * time.Minute
	defaultPingTimeout = 5 * time.Second
	busyTimeoutMillis  = 5000
)

// DB wraps a GORM database connection
type DB struct {
	*gorm.DB
}

// Options tunes how the SQLite file is opened
type Options struct {
	// EnableWAL switches the journal to write-ahead logging
	EnableWAL bool

	// PingTimeout bounds the connectivity check made on open
	PingTimeout time.Duration
}

// DefaultOptions returns WAL mode with a five second ping timeout
func DefaultOptions() Options {
	return Options{EnableWAL: true, PingTimeout: defaultPingTimeout}
}

// New opens the SQLite database at dbPath, e.g. "./data/fairshare.db",
// with DefaultOptions
func New(dbPath string) (*DB, error) {
	return Open(dbPath, DefaultOptions())
}

// Open opens the SQLite database at dbPath with foreign keys enforced
func Open(dbPath string, opts Options) (*DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path cannot be empty", ErrInvalidInput)
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = defaultPingTimeout
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", dbPath, busyTimeoutMillis)
	if opts.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), opts.PingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: gormDB}, nil
}

// Health checks database connectivity
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetSQLDB returns the underlying sql.DB for migrations
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}
