package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kawabatas/payroll-batch/internal/domain/repository"
	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

// crud implements repository.Repository[T, string] for one table.
// columns[0] must be the "id" column; "created_at" is never overwritten on update.
type crud[T any] struct {
	db    *sqlx.DB
	table string

	columns []string
	update  []string
	upsert  string

	idOf  func(*T) string
	stamp func(e *T, now time.Time)
}

func newCRUD[T any](db *sqlx.DB, d Dialect, table string, columns []string, idOf func(*T) string, stamp func(*T, time.Time)) *crud[T] {
	update := slices.DeleteFunc(slices.Clone(columns), func(c string) bool {
		return c == "id" || c == "created_at"
	})
	return &crud[T]{
		db:      db,
		table:   table,
		columns: columns,
		update:  update,
		upsert:  d.UpsertSQL(table, columns, "id", update),
		idOf:    idOf,
		stamp:   stamp,
	}
}

func (c *crud[T]) selectSQL() string {
	return "SELECT " + strings.Join(c.columns, ", ") + " FROM " + c.table
}

func (c *crud[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, fmt.Errorf("save %s: nil entity", c.table)
	}
	id := c.idOf(entity)
	if id == "" {
		return nil, repository.ErrEmptyID
	}
	row := *entity
	c.stamp(&row, clock.UTCNow())
	if _, err := c.db.NamedExecContext(ctx, c.upsert, &row); err != nil {
		return nil, fmt.Errorf("save %s %q: %w", c.table, id, err)
	}
	// 更新時は created_at を保持するので保存後の行を読み直して返す
	saved, found, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("save %s %q: row not found after write", c.table, id)
	}
	return saved, nil
}

func (c *crud[T]) FindByID(ctx context.Context, id string) (*T, bool, error) {
	var out T
	err := c.db.GetContext(ctx, &out, c.db.Rebind(c.selectSQL()+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find %s %q: %w", c.table, id, err)
	}
	return &out, true, nil
}

func (c *crud[T]) FindAll(ctx context.Context) ([]T, error) {
	return c.selectWhere(ctx, "")
}

func (c *crud[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, c.db.Rebind("DELETE FROM "+c.table+" WHERE id = ?"), id)
	if err != nil {
		return false, fmt.Errorf("delete %s %q: %w", c.table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s %q: %w", c.table, id, err)
	}
	return n > 0, nil
}

func (c *crud[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+c.table); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

// selectWhere lists rows ordered by creation; where uses ? placeholders.
func (c *crud[T]) selectWhere(ctx context.Context, where string, args ...any) ([]T, error) {
	q := c.selectSQL()
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at ASC, id ASC"
	out := make([]T, 0)
	if err := c.db.SelectContext(ctx, &out, c.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	return out, nil
}
