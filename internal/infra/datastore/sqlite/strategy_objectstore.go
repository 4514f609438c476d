package sqlite

import (
	"context"
	"os"
	"path/filepath"

	storageif "github.com/kawabatas/payroll-batch/internal/infra/storage"
	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

// ObjectStoreSnapshotStrategy は SQLite のスナップショットを ObjectStore（GCS やローカルディレクトリ）に同期する戦略です。
// - 起動時: FileName をローカルにダウンロード
// - バックアップ時: VACUUM INTO で一貫スナップショットを作成 → 二相アップロード + backups/ に保管
type ObjectStoreSnapshotStrategy struct {
	ObjectStore storageif.ObjectStore
	Bucket      string
	// TempDir holds the snapshot file before upload; defaults to os.TempDir().
	TempDir string
}

func (s ObjectStoreSnapshotStrategy) OnStartup(ctx context.Context, dbPath string) error {
	if s.ObjectStore == nil || s.Bucket == "" {
		return nil
	}
	return s.ObjectStore.DownloadIfNeeded(ctx, s.Bucket, FileName, dbPath)
}

func (s ObjectStoreSnapshotStrategy) Backup(ctx context.Context, dbPath string) error {
	if s.ObjectStore == nil || s.Bucket == "" {
		return nil
	}
	dir := s.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	now := clock.UTCNow()
	snap := filepath.Join(dir, "payroll-snapshot-"+now.Format("20060102-150405.000000000")+".sqlite")
	if err := SnapshotTo(ctx, dbPath, snap); err != nil {
		return err
	}
	defer os.Remove(snap)

	backupKey := "backups/" + now.Format("2006-01-02") + "/" + now.Format("150405") + "-" + FileName
	return s.ObjectStore.UploadTwoPhaseWithBackup(ctx, s.Bucket, FileName, backupKey, snap)
}

// 注: インターフェイス実装の明示は循環参照を避けるため省略
