package sqlrepo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/domain/repository"
	"github.com/kawabatas/payroll-batch/internal/util/clock"
)

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo.sqlite")
	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, SQLite{}))
	return db
}

func stubClock(t *testing.T) *clock.Stub {
	t.Helper()
	stub := clock.NewStub(t0)
	t.Cleanup(clock.Set(stub))
	return stub
}

func TestBatchRepo_SaveAndFind(t *testing.T) {
	stubClock(t)
	repo := NewBatchRepo(openTestDB(t), SQLite{})
	ctx := context.Background()

	in := &model.Batch{
		ID:           "B-2026-10",
		Name:         "October salaries",
		PaymentType:  model.PaymentTypeDomestic,
		Currency:     "INR",
		DebitAccount: "001-223344",
		AccountType:  "Current",
		PaymentDate:  "2026-10-31",
		Status:       model.BatchStatusDraft,
	}
	saved, err := repo.Save(ctx, in)
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.IsZero(), "Save must not mutate its argument")
	assert.True(t, saved.CreatedAt.Equal(t0))
	assert.True(t, saved.UpdatedAt.Equal(t0))

	got, found, err := repo.FindByID(ctx, "B-2026-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.PaymentType, got.PaymentType)
	assert.Equal(t, in.Currency, got.Currency)
	assert.Equal(t, in.DebitAccount, got.DebitAccount)
	assert.Equal(t, in.AccountType, got.AccountType)
	assert.Equal(t, in.PaymentDate, got.PaymentDate)
	assert.Equal(t, model.BatchStatusDraft, got.Status)
}

func TestBatchRepo_FindByID_Absent(t *testing.T) {
	repo := NewBatchRepo(openTestDB(t), SQLite{})

	got, found, err := repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestBatchRepo_SaveEmptyID(t *testing.T) {
	repo := NewBatchRepo(openTestDB(t), SQLite{})

	_, err := repo.Save(context.Background(), &model.Batch{Name: "no key"})
	assert.ErrorIs(t, err, repository.ErrEmptyID)
}

func TestBatchRepo_UpsertKeepsCreatedAt(t *testing.T) {
	stub := stubClock(t)
	repo := NewBatchRepo(openTestDB(t), SQLite{})
	ctx := context.Background()

	_, err := repo.Save(ctx, &model.Batch{ID: "B1", Name: "first", Status: model.BatchStatusDraft})
	require.NoError(t, err)

	stub.Advance(time.Hour)
	updated, err := repo.Save(ctx, &model.Batch{ID: "B1", Name: "renamed", Status: model.BatchStatusSubmitted})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, model.BatchStatusSubmitted, updated.Status)
	assert.True(t, updated.CreatedAt.Equal(t0), "created_at = %v", updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.Equal(t0.Add(time.Hour)), "updated_at = %v", updated.UpdatedAt)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBatchRepo_FindAllDeleteCount(t *testing.T) {
	stub := stubClock(t)
	repo := NewBatchRepo(openTestDB(t), SQLite{})
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, id := range []string{"B3", "B1", "B2"} {
		_, err := repo.Save(ctx, &model.Batch{ID: id, Status: model.BatchStatusDraft})
		require.NoError(t, err)
		stub.Advance(time.Minute)
	}

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"B3", "B1", "B2"}, []string{all[0].ID, all[1].ID, all[2].ID})

	deleted, err := repo.DeleteByID(ctx, "B1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByID(ctx, "B1")
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPayrollEntryRepo_ByBatch(t *testing.T) {
	stub := stubClock(t)
	db := openTestDB(t)
	batches := NewBatchRepo(db, SQLite{})
	entries := NewPayrollEntryRepo(db, SQLite{})
	ctx := context.Background()

	for _, id := range []string{"B1", "B2"} {
		_, err := batches.Save(ctx, &model.Batch{ID: id, Status: model.BatchStatusDraft})
		require.NoError(t, err)
	}
	for i, e := range []model.PayrollEntry{
		{ID: "E1", BatchID: "B1", Method: "NEFT", PayeeName: "Employee 1", Amount: 1000},
		{ID: "E2", BatchID: "B1", Method: "NEFT", PayeeName: "Employee 2", Amount: 2500.75},
		{ID: "E3", BatchID: "B2", Method: "RTGS", PayeeName: "Employee 3", Amount: 300},
	} {
		stub.Advance(time.Duration(i+1) * time.Second)
		_, err := entries.Save(ctx, &e)
		require.NoError(t, err)
	}

	got, err := entries.FindByBatchID(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "E1", got[0].ID)
	assert.Equal(t, model.Amount(2500.75), got[1].Amount)

	none, err := entries.FindByBatchID(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	n, err := entries.DeleteByBatchID(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 残りは外部キーの ON DELETE CASCADE で消える
	_, err = batches.DeleteByID(ctx, "B2")
	require.NoError(t, err)
	count, err := entries.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPayrollEntryRepo_RejectsUnknownBatch(t *testing.T) {
	entries := NewPayrollEntryRepo(openTestDB(t), SQLite{})

	_, err := entries.Save(context.Background(), &model.PayrollEntry{ID: "E1", BatchID: "ghost"})
	assert.Error(t, err)
}

func TestBatchRepo_UpdateIfStatus(t *testing.T) {
	stub := stubClock(t)
	repo := NewBatchRepo(openTestDB(t), SQLite{})
	ctx := context.Background()

	_, err := repo.Save(ctx, &model.Batch{ID: "B1", Name: "draft", Status: model.BatchStatusDraft})
	require.NoError(t, err)

	stub.Advance(time.Minute)
	submitted, ok, err := repo.UpdateIfStatus(ctx,
		&model.Batch{ID: "B1", Name: "final", Status: model.BatchStatusSubmitted}, model.BatchStatusDraft)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "final", submitted.Name)
	assert.Equal(t, model.BatchStatusSubmitted, submitted.Status)
	assert.True(t, submitted.CreatedAt.Equal(t0))
	assert.True(t, submitted.UpdatedAt.Equal(t0.Add(time.Minute)))

	// 2 回目の遷移は条件に合わない
	again, ok, err := repo.UpdateIfStatus(ctx,
		&model.Batch{ID: "B1", Name: "again", Status: model.BatchStatusSubmitted}, model.BatchStatusDraft)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, again)

	got, _, err := repo.FindByID(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, "final", got.Name)

	_, ok, err = repo.UpdateIfStatus(ctx, &model.Batch{ID: "missing", Status: model.BatchStatusDraft}, model.BatchStatusDraft)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = repo.UpdateIfStatus(ctx, &model.Batch{}, model.BatchStatusDraft)
	assert.ErrorIs(t, err, repository.ErrEmptyID)
}

func TestBatchRepo_DeleteIfStatus(t *testing.T) {
	repo := NewBatchRepo(openTestDB(t), SQLite{})
	ctx := context.Background()

	_, err := repo.Save(ctx, &model.Batch{ID: "B1", Status: model.BatchStatusSubmitted})
	require.NoError(t, err)

	deleted, err := repo.DeleteIfStatus(ctx, "B1", model.BatchStatusDraft)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteIfStatus(ctx, "B1", model.BatchStatusSubmitted)
	require.NoError(t, err)
	assert.True(t, deleted)
}
