package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig は環境変数を読み取りアプリ全体に渡す設定です。
type AppConfig struct {
	Port            string // HTTP ポート（未設定時は 8080）
	LogProvider     string // gcp | text
	LogLevel        string // -4 | 0 | 4 | 8 or debug/info/warn/error
	MaintenanceMode string // on | off

	DBDriver     string // sqlite | postgres | mysql
	DBDSN        string // postgres / mysql の接続文字列
	SqliteSource string // local | gcs
	SqlitePath   string // SQLite ファイルの明示パス

	StorageProvider string // gcs | local
	SqliteBucket    string // バケット名（local の場合はディレクトリ）
	BackupDir       string // ローカルスナップショットの出力先

	PeriodicBackup       string // on | off (default off)
	PeriodicBackupMinute string // integer minutes (default 10)

	StaticDir string // ビルド済みフロントエンド
	SeedFile  string // 起動時に読み込む YAML

	KafkaBrokers string // comma separated
	KafkaTopic   string

	GraphiteAddress string
	GraphitePrefix  string
	LogMetrics      string // on | off
}

// Load reads a .env file when present, then the environment.
func Load(files ...string) AppConfig {
	_ = godotenv.Load(files...)
	return NewFromEnv()
}

func NewFromEnv() AppConfig {
	return AppConfig{
		Port:                 getenv("PORT", "8080"),
		LogProvider:          os.Getenv("LOG_PROVIDER"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		MaintenanceMode:      os.Getenv("MAINTENANCE_MODE"),
		DBDriver:             os.Getenv("DB_DRIVER"),
		DBDSN:                os.Getenv("DB_DSN"),
		SqliteSource:         os.Getenv("SQLITE_SOURCE"),
		SqlitePath:           os.Getenv("SQLITE_PATH"),
		StorageProvider:      os.Getenv("STORAGE_PROVIDER"),
		SqliteBucket:         os.Getenv("SQLITE_BUCKET"),
		BackupDir:            os.Getenv("BACKUP_DIR"),
		PeriodicBackup:       os.Getenv("PERIODIC_BACKUP"),
		PeriodicBackupMinute: os.Getenv("PERIODIC_BACKUP_MINUTE"),
		StaticDir:            getenv("STATIC_DIR", "./frontend/dist"),
		SeedFile:             os.Getenv("SEED_FILE"),
		KafkaBrokers:         os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:           getenv("KAFKA_TOPIC", "payroll.batches"),
		GraphiteAddress:      os.Getenv("GRAPHITE_ADDRESS"),
		GraphitePrefix:       getenv("GRAPHITE_PREFIX", "payroll-batch"),
		LogMetrics:           os.Getenv("LOG_METRICS"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// IsSQLite はドライバが SQLite（既定）かの判定です。
func (c AppConfig) IsSQLite() bool { return c.DBDriver == "" || c.DBDriver == "sqlite" }

// SnapshotEnabled はスナップショット同期を有効化すべきかの判定です。
func (c AppConfig) SnapshotEnabled() bool {
	return (c.StorageProvider == "gcs" || c.StorageProvider == "local") && c.SqliteBucket != ""
}

func (c AppConfig) MaintenanceEnabled() bool { return c.MaintenanceMode == "on" }

// PeriodicBackupEnabled は定期バックアップが有効か判定します（既定は off）。
func (c AppConfig) PeriodicBackupEnabled() bool { return c.PeriodicBackup == "on" }

// PeriodicBackupInterval は間隔を返します（未設定・不正値は 10 分）。
func (c AppConfig) PeriodicBackupInterval() time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(c.PeriodicBackupMinute))
	if err != nil || n <= 0 {
		n = 10
	}
	return time.Duration(n) * time.Minute
}

// Brokers splits KAFKA_BROKERS; nil means events are not published.
func (c AppConfig) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c AppConfig) LogMetricsEnabled() bool { return c.LogMetrics == "on" }
