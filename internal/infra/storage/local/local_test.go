package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_DownloadMissingCreatesEmptyFile(t *testing.T) {
	bucket := t.TempDir()
	dest := filepath.Join(t.TempDir(), "db", "payroll.sqlite")

	require.NoError(t, Dir{}.DownloadIfNeeded(context.Background(), bucket, "payroll.sqlite", dest))

	fi, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
}

func TestDir_UploadThenDownload(t *testing.T) {
	ctx := context.Background()
	bucket := t.TempDir()
	src := filepath.Join(t.TempDir(), "snap.sqlite")
	require.NoError(t, os.WriteFile(src, []byte("snapshot-bytes"), 0644))

	err := Dir{}.UploadTwoPhaseWithBackup(ctx, bucket, "payroll.sqlite", "backups/2026-10-01/090000-payroll.sqlite", src)
	require.NoError(t, err)

	current, err := os.ReadFile(filepath.Join(bucket, "payroll.sqlite"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot-bytes", string(current))
	backup, err := os.ReadFile(filepath.Join(bucket, "backups", "2026-10-01", "090000-payroll.sqlite"))
	require.NoError(t, err)
	assert.Equal(t, "snapshot-bytes", string(backup))

	leftovers, err := filepath.Glob(filepath.Join(bucket, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	dest := filepath.Join(t.TempDir(), "restored.sqlite")
	require.NoError(t, Dir{}.DownloadIfNeeded(ctx, bucket, "payroll.sqlite", dest))
	restored, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "snapshot-bytes", string(restored))
}

func TestDir_DownloadMissingKeepsExistingFile(t *testing.T) {
	bucket := t.TempDir()
	dest := filepath.Join(t.TempDir(), "payroll.sqlite")
	require.NoError(t, os.WriteFile(dest, []byte("live-db"), 0644))

	require.NoError(t, Dir{}.DownloadIfNeeded(context.Background(), bucket, "payroll.sqlite", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "live-db", string(got))
}

func TestDir_DownloadRemovesStaleWAL(t *testing.T) {
	bucket := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bucket, "payroll.sqlite"), []byte("snapshot"), 0644))
	dest := filepath.Join(t.TempDir(), "payroll.sqlite")
	for _, f := range []string{dest, dest + "-wal", dest + "-shm"} {
		require.NoError(t, os.WriteFile(f, []byte("old"), 0644))
	}

	require.NoError(t, Dir{}.DownloadIfNeeded(context.Background(), bucket, "payroll.sqlite", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(got))
	assert.NoFileExists(t, dest+"-wal")
	assert.NoFileExists(t, dest+"-shm")
}
