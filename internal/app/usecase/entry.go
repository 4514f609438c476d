package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
)

// EntryInput carries the editable fields of a payroll entry.
// PUT は行全体を送ってくるため、全フィールドを置き換えます。
type EntryInput struct {
	Method           string       `json:"method" validate:"required,max=32"`
	PayeeDetails     string       `json:"payeeDetails" validate:"max=255"`
	PayeeName        string       `json:"payeeName" validate:"max=255"`
	BankDetails      string       `json:"bankDetails" validate:"max=255"`
	YourReference    string       `json:"yourReference" validate:"max=255"`
	PaymentReference string       `json:"paymentReference" validate:"max=255"`
	Amount           model.Amount `json:"amount" validate:"gte=0"`
	Notes            string       `json:"notes" validate:"max=1000"`
}

func (in EntryInput) apply(e *model.PayrollEntry) {
	e.Method = in.Method
	e.PayeeDetails = in.PayeeDetails
	e.PayeeName = in.PayeeName
	e.BankDetails = in.BankDetails
	e.YourReference = in.YourReference
	e.PaymentReference = in.PaymentReference
	e.Amount = in.Amount
	e.Notes = in.Notes
}

type EntryService struct {
	ds      datastore.DataStore
	batches *BatchService
}

func NewEntryService(ds datastore.DataStore, batches *BatchService) *EntryService {
	return &EntryService{ds: ds, batches: batches}
}

func (s *EntryService) ListByBatch(ctx context.Context, batchID string) ([]model.PayrollEntry, error) {
	if _, err := s.batches.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return s.ds.PayrollEntries().FindByBatchID(ctx, batchID)
}

func (s *EntryService) Add(ctx context.Context, batchID string, in EntryInput) (model.PayrollEntry, error) {
	if err := validateInput(in); err != nil {
		return model.PayrollEntry{}, err
	}
	unlock := s.batches.locks.Lock(batchID)
	defer unlock()
	if _, err := s.batches.draft(ctx, batchID); err != nil {
		return model.PayrollEntry{}, err
	}
	e := model.PayrollEntry{ID: uuid.NewString(), BatchID: batchID}
	in.apply(&e)
	saved, err := s.ds.PayrollEntries().Save(ctx, &e)
	if err != nil {
		return model.PayrollEntry{}, err
	}
	slog.DebugContext(ctx, "entry added", slog.String("batch_id", batchID), slog.String("entry_id", saved.ID))
	return *saved, nil
}

func (s *EntryService) Update(ctx context.Context, entryID string, in EntryInput) (model.PayrollEntry, error) {
	if err := validateInput(in); err != nil {
		return model.PayrollEntry{}, err
	}
	e, unlock, err := s.editable(ctx, entryID)
	if err != nil {
		return model.PayrollEntry{}, err
	}
	defer unlock()
	in.apply(&e)
	saved, err := s.ds.PayrollEntries().Save(ctx, &e)
	if err != nil {
		return model.PayrollEntry{}, err
	}
	return *saved, nil
}

func (s *EntryService) Delete(ctx context.Context, entryID string) error {
	_, unlock, err := s.editable(ctx, entryID)
	if err != nil {
		return err
	}
	defer unlock()
	deleted, err := s.ds.PayrollEntries().DeleteByID(ctx, entryID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	return nil
}

// editable loads an entry whose batch is still a draft and holds that batch's
// lock until the returned unlock is called.
func (s *EntryService) editable(ctx context.Context, entryID string) (model.PayrollEntry, func(), error) {
	e, found, err := s.ds.PayrollEntries().FindByID(ctx, entryID)
	if err != nil {
		return model.PayrollEntry{}, nil, err
	}
	if !found {
		return model.PayrollEntry{}, nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	unlock := s.batches.locks.Lock(e.BatchID)
	if _, err := s.batches.draft(ctx, e.BatchID); err != nil {
		unlock()
		return model.PayrollEntry{}, nil, err
	}
	return *e, unlock, nil
}
