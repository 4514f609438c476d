package datastore

import (
	"context"
	"fmt"

	"github.com/kawabatas/payroll-batch/internal/domain/repository"
)

// DataStore is an app-facing facade for all repositories.
type DataStore interface {
	Ping(ctx context.Context) error
	Close() error
	// SetConnPool は接続プール設定を適用します。
	SetConnPool(maxOpen, maxIdle int)
	// Backup takes a snapshot through the configured SnapshotStrategy (SQLite only).
	Backup(ctx context.Context) error
	// Driver returns the normalized driver name (sqlite | postgres | mysql).
	Driver() string

	Batches() repository.BatchRepository
	// BatchStates は状態を条件にした書き込み（draft → submitted など）を提供します。
	BatchStates() repository.BatchStateWriter
	PayrollEntries() repository.PayrollEntryRepository
}

// Config captures DB driver and DSN-like parameters.
type Config struct {
	Driver string // sqlite (default) | postgres | mysql
	// DSN is required for postgres and mysql (mysql needs parseTime=true).
	DSN string
	// SQLite only.
	Source   string // extra hint for path decisions (e.g., "gcs")
	Path     string // explicit SQLite file path; overrides Source
	Strategy SnapshotStrategy
}

// Open selects and opens a datastore by driver.
func Open(ctx context.Context, cfg Config) (DataStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return openSQLite(ctx, cfg)
	case "postgres", "postgresql":
		return openServerDB(ctx, "postgres", cfg.DSN)
	case "mysql":
		return openServerDB(ctx, "mysql", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
