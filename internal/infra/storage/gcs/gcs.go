package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	storageif "github.com/kawabatas/payroll-batch/internal/infra/storage"
	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

// Adapter implements storage.ObjectStore on Google Cloud Storage.
// 起動・終了・定期バックアップでのみ使うため、クライアントは呼び出しごとに生成します。
type Adapter struct{}

var _ storageif.ObjectStore = (*Adapter)(nil)

func (a *Adapter) DownloadIfNeeded(ctx context.Context, bucket, object, dest string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcs client: %w", err)
	}
	defer client.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		kept, kErr := storageif.KeepOrCreate(dest)
		if kErr != nil {
			return kErr
		}
		if kept {
			slog.WarnContext(ctx, "datastore file is not found on GCS, keep the local file", slog.String("object", object))
		} else {
			slog.WarnContext(ctx, "datastore file is not found on GCS, so create new file", slog.String("object", object))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("gcs read %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	if err := storageif.RemoveSidecars(dest); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (a *Adapter) UploadTwoPhaseWithBackup(ctx context.Context, bucket, currentObject, backupObject, localPath string) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcs client: %w", err)
	}
	defer client.Close()

	b := client.Bucket(bucket)
	tmp := b.Object(currentObject + ".tmp-" + clock.NowUTCFormatted("20060102-150405"))

	// 1. upload to tmp object
	if err := upload(ctx, tmp, localPath); err != nil {
		return err
	}
	// 2. copy tmp -> current, 3. copy tmp -> backups/...
	if backupObject == "" {
		backupObject = "backups/" + clock.NowUTCFormatted("2006-01-02") + "/" + clock.NowUTCFormatted("150405") + "-" + filepath.Base(currentObject)
	}
	for _, name := range []string{currentObject, backupObject} {
		if _, err := b.Object(name).CopierFrom(tmp).Run(ctx); err != nil {
			_ = tmp.Delete(ctx)
			return fmt.Errorf("gcs copy to %s: %w", name, err)
		}
	}
	// 4. delete tmp
	return tmp.Delete(ctx)
}

func upload(ctx context.Context, obj *storage.ObjectHandle, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	wc := obj.NewWriter(ctx)
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return fmt.Errorf("gcs upload %s: %w", obj.ObjectName(), err)
	}
	return wc.Close()
}
