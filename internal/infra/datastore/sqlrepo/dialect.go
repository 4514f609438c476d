package sqlrepo

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

func init() {
	// modernc.org/sqlite は "sqlite" で登録されるため sqlx に ? プレースホルダを教える
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Dialect captures the SQL that differs between the supported databases.
type Dialect interface {
	Name() string
	// UpsertSQL returns a named (:col) insert-or-update statement.
	UpsertSQL(table string, columns []string, conflictColumn string, updateColumns []string) string
	// Schema returns the DDL statements creating every table, idempotently.
	Schema() []string
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", "sqlite":
		return SQLite{}, nil
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func namedPlaceholders(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = ":" + c
	}
	return strings.Join(out, ", ")
}

// SQLite (3.24+) uses ON CONFLICT DO UPDATE.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) UpsertSQL(table string, columns []string, conflictColumn string, updateColumns []string) string {
	return onConflictUpsert(table, columns, conflictColumn, updateColumns, "excluded")
}

func (SQLite) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS batches (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  payment_type TEXT NOT NULL DEFAULT 'Domestic',
  currency TEXT NOT NULL DEFAULT '',
  debit_account TEXT NOT NULL DEFAULT '',
  account_type TEXT NOT NULL DEFAULT '',
  payment_date TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'draft',
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS payroll_entries (
  id TEXT PRIMARY KEY,
  batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
  method TEXT NOT NULL DEFAULT '',
  payee_details TEXT NOT NULL DEFAULT '',
  payee_name TEXT NOT NULL DEFAULT '',
  bank_details TEXT NOT NULL DEFAULT '',
  your_reference TEXT NOT NULL DEFAULT '',
  payment_reference TEXT NOT NULL DEFAULT '',
  amount REAL NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_payroll_entries_batch_id ON payroll_entries(batch_id)`,
	}
}

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) UpsertSQL(table string, columns []string, conflictColumn string, updateColumns []string) string {
	return onConflictUpsert(table, columns, conflictColumn, updateColumns, "EXCLUDED")
}

func (Postgres) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS batches (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  payment_type TEXT NOT NULL DEFAULT 'Domestic',
  currency TEXT NOT NULL DEFAULT '',
  debit_account TEXT NOT NULL DEFAULT '',
  account_type TEXT NOT NULL DEFAULT '',
  payment_date TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'draft',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS payroll_entries (
  id TEXT PRIMARY KEY,
  batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
  method TEXT NOT NULL DEFAULT '',
  payee_details TEXT NOT NULL DEFAULT '',
  payee_name TEXT NOT NULL DEFAULT '',
  bank_details TEXT NOT NULL DEFAULT '',
  your_reference TEXT NOT NULL DEFAULT '',
  payment_reference TEXT NOT NULL DEFAULT '',
  amount DOUBLE PRECISION NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_payroll_entries_batch_id ON payroll_entries(batch_id)`,
	}
}

// MySQL needs parseTime=true in the DSN so DATETIME scans into time.Time.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) UpsertSQL(table string, columns []string, conflictColumn string, updateColumns []string) string {
	sets := make([]string, len(updateColumns))
	for i, c := range updateColumns {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		table,
		strings.Join(columns, ", "),
		namedPlaceholders(columns),
		strings.Join(sets, ", "),
	)
}

func (MySQL) Schema() []string {
	// MySQL には CREATE INDEX IF NOT EXISTS がないためテーブル定義内でインデックスを作る
	return []string{
		`CREATE TABLE IF NOT EXISTS batches (
  id VARCHAR(64) NOT NULL PRIMARY KEY,
  name VARCHAR(255) NOT NULL DEFAULT '',
  payment_type VARCHAR(32) NOT NULL DEFAULT 'Domestic',
  currency VARCHAR(64) NOT NULL DEFAULT '',
  debit_account VARCHAR(64) NOT NULL DEFAULT '',
  account_type VARCHAR(64) NOT NULL DEFAULT '',
  payment_date VARCHAR(10) NOT NULL DEFAULT '',
  status VARCHAR(16) NOT NULL DEFAULT 'draft',
  created_at DATETIME(6) NOT NULL,
  updated_at DATETIME(6) NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS payroll_entries (
  id VARCHAR(64) NOT NULL PRIMARY KEY,
  batch_id VARCHAR(64) NOT NULL,
  method VARCHAR(32) NOT NULL DEFAULT '',
  payee_details VARCHAR(255) NOT NULL DEFAULT '',
  payee_name VARCHAR(255) NOT NULL DEFAULT '',
  bank_details VARCHAR(255) NOT NULL DEFAULT '',
  your_reference VARCHAR(255) NOT NULL DEFAULT '',
  payment_reference VARCHAR(255) NOT NULL DEFAULT '',
  amount DOUBLE NOT NULL DEFAULT 0,
  notes TEXT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  updated_at DATETIME(6) NOT NULL,
  INDEX idx_payroll_entries_batch_id (batch_id),
  CONSTRAINT fk_payroll_entries_batch FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
}

func onConflictUpsert(table string, columns []string, conflictColumn string, updateColumns []string, excluded string) string {
	sets := make([]string, len(updateColumns))
	for i, c := range updateColumns {
		sets[i] = fmt.Sprintf("%s = %s.%s", c, excluded, c)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		namedPlaceholders(columns),
		conflictColumn,
		strings.Join(sets, ", "),
	)
}
