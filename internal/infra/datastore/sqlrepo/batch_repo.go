package sqlrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/domain/repository"
	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

var batchColumns = []string{
	"id", "name", "payment_type", "currency", "debit_account", "account_type",
	"payment_date", "status", "created_at", "updated_at",
}

type BatchRepo struct {
	*crud[model.Batch]
	guardedUpdate string
}

var (
	_ repository.BatchRepository  = (*BatchRepo)(nil)
	_ repository.BatchStateWriter = (*BatchRepo)(nil)
)

func NewBatchRepo(db *sqlx.DB, d Dialect) *BatchRepo {
	c := newCRUD(db, d, "batches", batchColumns,
		func(b *model.Batch) string { return b.ID },
		func(b *model.Batch, now time.Time) {
			if b.CreatedAt.IsZero() {
				b.CreatedAt = now
			}
			b.UpdatedAt = now
		},
	)
	sets := make([]string, len(c.update))
	for i, col := range c.update {
		sets[i] = col + " = :" + col
	}
	return &BatchRepo{
		crud:          c,
		guardedUpdate: "UPDATE batches SET " + strings.Join(sets, ", ") + " WHERE id = :id AND status = :expected_status",
	}
}

// guardedBatch adds the expected status to the named parameters of the update.
type guardedBatch struct {
	model.Batch
	ExpectedStatus model.BatchStatus `db:"expected_status"`
}

func (r *BatchRepo) UpdateIfStatus(ctx context.Context, b *model.Batch, expected model.BatchStatus) (*model.Batch, bool, error) {
	if b == nil {
		return nil, false, fmt.Errorf("update batches: nil entity")
	}
	if b.ID == "" {
		return nil, false, repository.ErrEmptyID
	}
	row := guardedBatch{Batch: *b, ExpectedStatus: expected}
	row.UpdatedAt = clock.UTCNow()
	// MySQL は値が変わらない行を affected に数えないが、updated_at は毎回変わる
	res, err := r.db.NamedExecContext(ctx, r.guardedUpdate, row)
	if err != nil {
		return nil, false, fmt.Errorf("update batches %q: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("update batches %q: %w", b.ID, err)
	}
	if n == 0 {
		return nil, false, nil
	}
	saved, found, err := r.FindByID(ctx, b.ID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, fmt.Errorf("update batches %q: row not found after write", b.ID)
	}
	return saved, true, nil
}

func (r *BatchRepo) DeleteIfStatus(ctx context.Context, id string, expected model.BatchStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM batches WHERE id = ? AND status = ?"), id, expected)
	if err != nil {
		return false, fmt.Errorf("delete batches %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete batches %q: %w", id, err)
	}
	return n > 0, nil
}
