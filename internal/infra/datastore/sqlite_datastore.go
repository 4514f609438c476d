package datastore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/kawabatas/payroll-batch/internal/domain/repository"
	sqlitedriver "github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlite"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlrepo"
)

type sqliteStore struct {
	db       *sqlx.DB
	dbPath   string
	strategy SnapshotStrategy
	backupMu sync.Mutex

	batches *sqlrepo.BatchRepo
	entries repository.PayrollEntryRepository
}

func (s *sqliteStore) Driver() string                 { return "sqlite" }
func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close は終了時のスナップショットを Strategy に委譲してから DB を閉じます。
func (s *sqliteStore) Close() error {
	if err := s.Backup(context.Background()); err != nil {
		slog.Error("snapshot on shutdown failed", slog.Any("error", err))
	}
	return s.db.Close()
}

func (s *sqliteStore) Backup(ctx context.Context) error {
	if s.strategy == nil {
		return nil
	}
	// 定期バックアップと終了時のバックアップが重ならないようにする
	s.backupMu.Lock()
	defer s.backupMu.Unlock()
	return s.strategy.Backup(ctx, s.dbPath)
}

// SetConnPool は SQLite の接続プール設定を適用します。
// - maxOpen: 同時に開ける最大接続数
// - maxIdle: アイドル接続の最大数
func (s *sqliteStore) SetConnPool(maxOpen, maxIdle int) {
	if maxOpen > 0 {
		s.db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		s.db.SetMaxIdleConns(maxIdle)
	}
}

func openSQLite(ctx context.Context, cfg Config) (DataStore, error) {
	dbPath := sqlitedriver.Path(cfg.Source, cfg.Path)
	// 起動時のスナップショット取得は Strategy に委譲
	if cfg.Strategy != nil {
		if err := cfg.Strategy.OnStartup(ctx, dbPath); err != nil {
			return nil, err
		}
	}
	db, err := sqlitedriver.OpenAndInit(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	d := sqlrepo.SQLite{}
	return &sqliteStore{
		db:       db,
		dbPath:   dbPath,
		strategy: cfg.Strategy,
		batches:  sqlrepo.NewBatchRepo(db, d),
		entries:  sqlrepo.NewPayrollEntryRepo(db, d),
	}, nil
}

func (s *sqliteStore) Batches() repository.BatchRepository               { return s.batches }
func (s *sqliteStore) BatchStates() repository.BatchStateWriter          { return s.batches }
func (s *sqliteStore) PayrollEntries() repository.PayrollEntryRepository { return s.entries }
