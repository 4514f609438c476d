package sqlrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/domain/repository"
)

var payrollEntryColumns = []string{
	"id", "batch_id", "method", "payee_details", "payee_name", "bank_details",
	"your_reference", "payment_reference", "amount", "notes", "created_at", "updated_at",
}

type PayrollEntryRepo struct {
	*crud[model.PayrollEntry]
}

var _ repository.PayrollEntryRepository = (*PayrollEntryRepo)(nil)

func NewPayrollEntryRepo(db *sqlx.DB, d Dialect) *PayrollEntryRepo {
	return &PayrollEntryRepo{newCRUD(db, d, "payroll_entries", payrollEntryColumns,
		func(e *model.PayrollEntry) string { return e.ID },
		func(e *model.PayrollEntry, now time.Time) {
			if e.CreatedAt.IsZero() {
				e.CreatedAt = now
			}
			e.UpdatedAt = now
		},
	)}
}

func (r *PayrollEntryRepo) FindByBatchID(ctx context.Context, batchID string) ([]model.PayrollEntry, error) {
	return r.selectWhere(ctx, "batch_id = ?", batchID)
}

func (r *PayrollEntryRepo) DeleteByBatchID(ctx context.Context, batchID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM payroll_entries WHERE batch_id = ?"), batchID)
	if err != nil {
		return 0, fmt.Errorf("delete payroll_entries of batch %q: %w", batchID, err)
	}
	return res.RowsAffected()
}
