package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlrepo"
)

const FileName = "payroll.sqlite"

// Path decides DB file path for given source.
// - explicit path: used as is
// - "gcs": use /tmp for Cloud Run ephemeral FS
// - otherwise: local ./tmp
func Path(source, explicit string) string {
	if explicit != "" {
		_ = os.MkdirAll(filepath.Dir(explicit), 0755)
		return explicit
	}
	if source == "gcs" {
		return filepath.Join("/tmp", FileName)
	}
	_ = os.MkdirAll("./tmp", 0755)
	return filepath.Join("./tmp", FileName)
}

// PRAGMAの意味:
//
//	journal_mode=WAL: 同時実行性向上のためWALモードを有効化
//	synchronous=NORMAL: 性能と耐障害性のバランスを取る
//	busy_timeout: ロック競合時の自動リトライ待機時間（ms）
//	foreign_keys: payroll_entries の ON DELETE CASCADE を有効化
const busyTimeoutMs = 2000 // HTTPリクエストタイムアウトに合わせる

func dsnWithPragma(path string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, busyTimeoutMs)
}

// OpenAndInit opens the SQLite file at path and creates the schema.
func OpenAndInit(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsnWithPragma(path))
	if err != nil {
		return nil, err
	}
	if err := sqlrepo.Migrate(ctx, db, sqlrepo.SQLite{}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SnapshotTo は VACUUM INTO を用いて、SQLite DB の一貫したスナップショットを作成します。
//
// 注記:
//   - pure Go のドライバ（modernc.org/sqlite）では Online Backup API が直接は提供されていないため、
//     VACUUM INTO によるスナップショット方式を採用しています。
//   - outPath は信頼できるパスのみを渡すこと（VACUUM INTO はパラメータ化できない）。
//     既存ファイルへの VACUUM INTO は失敗するため、呼び出し側で一意なパスを用意します。
func SnapshotTo(ctx context.Context, dbPath, outPath string) error {
	const (
		maxRetries    = 3
		baseBackoffMs = 200
	)
	if strings.ContainsRune(outPath, '\'') {
		return fmt.Errorf("snapshot: invalid output path %q", outPath)
	}

	db, err := sqlx.Open("sqlite", dsnWithPragma(dbPath))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			slog.WarnContext(ctx, "snapshot: db close error", slog.Any("error", cerr))
		}
	}()

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		// WALファイル肥大化対策: チェックポイントでWALをtruncate
		_, _ = db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		_, err := db.ExecContext(ctx, fmt.Sprintf(`VACUUM INTO '%s';`, outPath))
		if err == nil {
			slog.InfoContext(ctx, "snapshot: success", slog.Int("attempt", i+1), slog.String("out", outPath))
			return nil
		}
		lastErr = err
		if !isBusyErr(err) {
			slog.ErrorContext(ctx, "snapshot: failed", slog.Int("attempt", i+1), slog.Any("error", err))
			return err
		}
		backoff := baseBackoffMs * (i + 1)
		slog.WarnContext(ctx, "snapshot: busy, retrying", slog.Int("attempt", i+1), slog.Int("sleep_ms", backoff), slog.Any("error", err))
		select {
		case <-time.After(time.Duration(backoff) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	slog.ErrorContext(ctx, "snapshot: all retries failed", slog.Any("error", lastErr))
	return lastErr
}

// isBusyErr は SQLITE_BUSY（"database is locked"）系エラーを判定します。
func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "SQLITE_BUSY") || strings.Contains(s, "database is locked")
}
