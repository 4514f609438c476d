package datastore

import (
	"context"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kawabatas/payroll-batch/internal/domain/repository"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlrepo"
)

// serverStore backs the DataStore with a networked database (PostgreSQL, MySQL).
// スナップショットは DB 側の仕組みに任せるため Backup は何もしません。
type serverStore struct {
	db     *sqlx.DB
	driver string

	batches *sqlrepo.BatchRepo
	entries repository.PayrollEntryRepository
}

func openServerDB(ctx context.Context, driver, dsn string) (DataStore, error) {
	if dsn == "" {
		return nil, errors.New(driver + ": DB_DSN is required")
	}
	d, err := sqlrepo.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := sqlrepo.Migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &serverStore{
		db:      db,
		driver:  d.Name(),
		batches: sqlrepo.NewBatchRepo(db, d),
		entries: sqlrepo.NewPayrollEntryRepo(db, d),
	}, nil
}

func (s *serverStore) Driver() string                   { return s.driver }
func (s *serverStore) Ping(ctx context.Context) error   { return s.db.PingContext(ctx) }
func (s *serverStore) Close() error                     { return s.db.Close() }
func (s *serverStore) Backup(ctx context.Context) error { return nil }
func (s *serverStore) SetConnPool(maxOpen, maxIdle int) {
	if maxOpen > 0 {
		s.db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		s.db.SetMaxIdleConns(maxIdle)
	}
}

func (s *serverStore) Batches() repository.BatchRepository               { return s.batches }
func (s *serverStore) BatchStates() repository.BatchStateWriter          { return s.batches }
func (s *serverStore) PayrollEntries() repository.PayrollEntryRepository { return s.entries }
