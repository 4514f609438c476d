package repository

import (
	"context"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
)

// BatchRepository abstracts Batch persistence regardless of the underlying DB.
type BatchRepository interface {
	Repository[model.Batch, string]
}

// BatchStateWriter writes a batch only while its stored status still matches.
// 状態遷移（draft → submitted）を条件付き書き込みで一度きりにするために使います。
type BatchStateWriter interface {
	// UpdateIfStatus overwrites every mutable field of b (status included) when the
	// stored row has status expected. updated=false with a nil error means the row
	// is missing or its status has moved on.
	UpdateIfStatus(ctx context.Context, b *model.Batch, expected model.BatchStatus) (saved *model.Batch, updated bool, err error)
	DeleteIfStatus(ctx context.Context, id string, expected model.BatchStatus) (deleted bool, err error)
}
