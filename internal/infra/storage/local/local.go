package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	storageif "github.com/kawabatas/payroll-batch/internal/infra/storage"
	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

// Dir implements ObjectStore on the local filesystem: a bucket is a directory,
// an object a file below it. ローカル開発とテストで GCS の代わりに使います。
type Dir struct{}

var _ storageif.ObjectStore = Dir{}

func (Dir) DownloadIfNeeded(ctx context.Context, bucket, object, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	src := filepath.Join(bucket, filepath.FromSlash(object))
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		_, err := storageif.KeepOrCreate(dest)
		return err
	}
	if err := storageif.RemoveSidecars(dest); err != nil {
		return err
	}
	return copyFile(src, dest)
}

func (Dir) UploadTwoPhaseWithBackup(ctx context.Context, bucket, currentObject, backupObject, localPath string) error {
	current := filepath.Join(bucket, filepath.FromSlash(currentObject))
	tmp := current + ".tmp-" + clock.NowUTCFormatted("20060102-150405")
	if err := copyFile(localPath, tmp); err != nil {
		return err
	}
	defer os.Remove(tmp)

	if backupObject != "" {
		if err := copyFile(tmp, filepath.Join(bucket, filepath.FromSlash(backupObject))); err != nil {
			return err
		}
	}
	// rename は同一ディレクトリ内でアトミック
	if err := os.Rename(tmp, current); err != nil {
		return fmt.Errorf("publish %s: %w", currentObject, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
