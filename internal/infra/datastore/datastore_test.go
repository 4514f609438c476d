package datastore

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	sqlitedriver "github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlite"
	"github.com/kawabatas/payroll-batch/internal/infra/storage/local"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.EqualError(t, err, "unsupported database driver: oracle")
}

func TestOpen_ServerDriverNeedsDSN(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		_, err := Open(context.Background(), Config{Driver: driver})
		assert.ErrorContains(t, err, "DB_DSN is required", driver)
	}
}

func TestOpen_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.sqlite")

	ds, err := Open(ctx, Config{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	ds.SetConnPool(4, 4)
	require.NoError(t, ds.Ping(ctx))
	assert.Equal(t, "sqlite", ds.Driver())

	_, err = ds.Batches().Save(ctx, &model.Batch{ID: "B1", Status: model.BatchStatusDraft})
	require.NoError(t, err)
	_, err = ds.PayrollEntries().Save(ctx, &model.PayrollEntry{ID: "E1", BatchID: "B1", Amount: 10})
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	// 再オープンしてもデータが残っている
	ds, err = Open(ctx, Config{Path: path})
	require.NoError(t, err)
	defer ds.Close()
	n, err := ds.PayrollEntries().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLiteStore_RestoresAndBacksUpThroughObjectStore(t *testing.T) {
	ctx := context.Background()
	bucket := t.TempDir()
	strategy := sqlitedriver.ObjectStoreSnapshotStrategy{ObjectStore: local.Dir{}, Bucket: bucket, TempDir: t.TempDir()}

	first, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "a.sqlite"), Strategy: strategy})
	require.NoError(t, err)
	_, err = first.Batches().Save(ctx, &model.Batch{ID: "B-restore", Status: model.BatchStatusDraft})
	require.NoError(t, err)
	require.NoError(t, first.Close()) // Close uploads a snapshot

	_, err = os.Stat(filepath.Join(bucket, sqlitedriver.FileName))
	require.NoError(t, err)
	backups, err := filepath.Glob(filepath.Join(bucket, "backups", "*", "*"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// 別インスタンス（別パス）で起動するとバケットから復元される
	second, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "b.sqlite"), Strategy: strategy})
	require.NoError(t, err)
	defer second.Close()
	_, found, err := second.Batches().FindByID(ctx, "B-restore")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSQLiteStore_EmptyBucketKeepsExistingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persistent.sqlite")

	ds, err := Open(ctx, Config{Path: path})
	require.NoError(t, err)
	for _, id := range []string{"B1", "B2", "B3"} {
		_, err := ds.Batches().Save(ctx, &model.Batch{ID: id, Status: model.BatchStatusDraft})
		require.NoError(t, err)
	}
	require.NoError(t, ds.Close())

	// スナップショットがまだ無いバケットで再起動してもデータは消えない
	strategy := sqlitedriver.ObjectStoreSnapshotStrategy{ObjectStore: local.Dir{}, Bucket: t.TempDir(), TempDir: t.TempDir()}
	ds, err = Open(ctx, Config{Path: path, Strategy: strategy})
	require.NoError(t, err)
	defer ds.Close()
	n, err := ds.Batches().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

type countingStore struct {
	DataStore
	backups atomic.Int32
}

func (c *countingStore) Backup(ctx context.Context) error {
	c.backups.Add(1)
	return nil
}

func TestStartPeriodicBackup(t *testing.T) {
	_, err := StartPeriodicBackup(context.Background(), &countingStore{}, 0)
	assert.Error(t, err)

	cs := &countingStore{}
	stop, err := StartPeriodicBackup(context.Background(), cs, time.Second)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return cs.backups.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	stop()
}

func TestLocalSnapshotStrategy_Backup(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	path := filepath.Join(t.TempDir(), "app.sqlite")

	ds, err := Open(ctx, Config{Path: path, Strategy: sqlitedriver.LocalSnapshotStrategy{OutputDir: out}})
	require.NoError(t, err)
	_, err = ds.Batches().Save(ctx, &model.Batch{ID: "B1", Status: model.BatchStatusDraft})
	require.NoError(t, err)
	require.NoError(t, ds.Backup(ctx))
	require.NoError(t, ds.Close())

	snaps, err := filepath.Glob(filepath.Join(out, "payroll-snapshot-*.sqlite"))
	require.NoError(t, err)
	require.Len(t, snaps, 2) // Backup と Close の 2 回

	db, err := sqlx.Open("sqlite", snaps[0])
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM batches"))
	assert.Equal(t, 1, n)
}
