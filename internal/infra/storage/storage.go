package storage

import (
	"context"
	"errors"
	"os"
)

// ObjectStore abstracts a minimal object-storage API used for DB snapshots.
type ObjectStore interface {
	// DownloadIfNeeded fetches object into dest. A missing object keeps a
	// non-empty dest as is and otherwise leaves an empty file.
	DownloadIfNeeded(ctx context.Context, bucket, object, dest string) error
	// UploadTwoPhaseWithBackup uploads localPath to a tmp object, atomically copies to current,
	// also writes a versioned backup object, then removes the tmp.
	UploadTwoPhaseWithBackup(ctx context.Context, bucket, currentObject, backupObject, localPath string) error
}

// KeepOrCreate is used when the remote object does not exist: an existing
// non-empty dest is left untouched, otherwise an empty file is created.
// 永続ディスク上の DB をスナップショット未作成のバケットで消さないための処理です。
func KeepOrCreate(dest string) (kept bool, err error) {
	if fi, err := os.Stat(dest); err == nil && !fi.IsDir() && fi.Size() > 0 {
		return true, nil
	}
	f, err := os.Create(dest)
	if err != nil {
		return false, err
	}
	return false, f.Close()
}

// RemoveSidecars deletes the SQLite -wal and -shm files next to dbPath so a
// restored snapshot is not replayed against a stale WAL.
func RemoveSidecars(dbPath string) error {
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
