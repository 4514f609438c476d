package sqlite

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

// LocalSnapshotStrategy writes dated snapshots into OutputDir and never restores.
type LocalSnapshotStrategy struct {
	OutputDir string
}

func (LocalSnapshotStrategy) OnStartup(ctx context.Context, dbPath string) error { return nil }

func (s LocalSnapshotStrategy) Backup(ctx context.Context, dbPath string) error {
	dir := s.OutputDir
	if dir == "" {
		dir = filepath.Join("./tmp", "backups")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	snap := filepath.Join(dir, "payroll-snapshot-"+clock.NowUTCFormatted("20060102-150405.000000000")+".sqlite")
	return SnapshotTo(ctx, dbPath, snap)
}
