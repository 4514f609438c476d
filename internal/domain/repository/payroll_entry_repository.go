package repository

import (
	"context"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
)

type PayrollEntryRepository interface {
	Repository[model.PayrollEntry, string]

	FindByBatchID(ctx context.Context, batchID string) ([]model.PayrollEntry, error)
	// DeleteByBatchID removes every entry of the batch and returns how many were removed.
	DeleteByBatchID(ctx context.Context, batchID string) (int64, error)
}
