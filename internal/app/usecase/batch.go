package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
	"github.com/kawabatas/payroll-batch/internal/infra/messaging"
)

const (
	EventBatchSubmitted = "batch.submitted"
	DefaultCurrency     = "INR"

	publishTimeout = 15 * time.Second
)

// BatchInput は POST /api/batches のリクエストボディです。
type BatchInput struct {
	ID           string `json:"id" validate:"omitempty,max=64,excludesall=/?#"`
	Name         string `json:"name" validate:"max=255"`
	PaymentType  string `json:"paymentType" validate:"omitempty,oneof=Domestic International"`
	Currency     string `json:"currency" validate:"max=64"`
	DebitAccount string `json:"debitAccount" validate:"max=64"`
	AccountType  string `json:"accountType" validate:"max=64"`
	PaymentDate  string `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
}

// BatchPatch は PUT /api/batches/{id} のリクエストボディです。nil のフィールドは変更しません。
type BatchPatch struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	PaymentType  *string `json:"paymentType" validate:"omitempty,oneof=Domestic International"`
	Currency     *string `json:"currency" validate:"omitempty,max=64"`
	DebitAccount *string `json:"debitAccount" validate:"omitempty,max=64"`
	AccountType  *string `json:"accountType" validate:"omitempty,max=64"`
	PaymentDate  *string `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
	Status       *string `json:"status" validate:"omitempty,oneof=draft submitted"`
}

type BatchSummary struct {
	BatchID     string            `json:"batchId"`
	Status      model.BatchStatus `json:"status"`
	EntryCount  int               `json:"entryCount"`
	TotalAmount float64           `json:"totalAmount"`
}

// BatchSubmitted is the payload of the batch.submitted event.
type BatchSubmitted struct {
	BatchID     string    `json:"batchId"`
	PaymentType string    `json:"paymentType"`
	Currency    string    `json:"currency"`
	PaymentDate string    `json:"paymentDate"`
	EntryCount  int       `json:"entryCount"`
	TotalAmount float64   `json:"totalAmount"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type BatchService struct {
	ds     datastore.DataStore
	events messaging.Publisher

	locks    keyedMutex
	inflight sync.WaitGroup
}

func NewBatchService(ds datastore.DataStore, events messaging.Publisher) *BatchService {
	if events == nil {
		events = messaging.Noop{}
	}
	return &BatchService{ds: ds, events: events}
}

func (s *BatchService) List(ctx context.Context) ([]model.Batch, error) {
	return s.ds.Batches().FindAll(ctx)
}

func (s *BatchService) Count(ctx context.Context) (int64, error) {
	return s.ds.Batches().Count(ctx)
}

func (s *BatchService) Get(ctx context.Context, id string) (model.Batch, error) {
	b, found, err := s.ds.Batches().FindByID(ctx, id)
	if err != nil {
		return model.Batch{}, err
	}
	if !found {
		return model.Batch{}, fmt.Errorf("%w: batch %s", ErrNotFound, id)
	}
	return *b, nil
}

func (s *BatchService) Create(ctx context.Context, in BatchInput) (model.Batch, error) {
	if err := validateInput(in); err != nil {
		return model.Batch{}, err
	}
	b := model.Batch{
		ID:           in.ID,
		Name:         in.Name,
		PaymentType:  in.PaymentType,
		Currency:     in.Currency,
		DebitAccount: in.DebitAccount,
		AccountType:  in.AccountType,
		PaymentDate:  in.PaymentDate,
		Status:       model.BatchStatusDraft,
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	} else if _, found, err := s.ds.Batches().FindByID(ctx, b.ID); err != nil {
		return model.Batch{}, err
	} else if found {
		return model.Batch{}, fmt.Errorf("%w: batch %s already exists", ErrConflict, b.ID)
	}
	if b.PaymentType == "" {
		b.PaymentType = model.PaymentTypeDomestic
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	saved, err := s.ds.Batches().Save(ctx, &b)
	if err != nil {
		return model.Batch{}, err
	}
	slog.InfoContext(ctx, "batch created", slog.String("batch_id", saved.ID))
	return *saved, nil
}

// Update applies the non-nil fields of p. Setting status to "submitted" submits the batch.
func (s *BatchService) Update(ctx context.Context, id string, p BatchPatch) (model.Batch, error) {
	if err := validateInput(p); err != nil {
		return model.Batch{}, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.draft(ctx, id)
	if err != nil {
		return model.Batch{}, err
	}
	setIf(&b.Name, p.Name)
	setIf(&b.PaymentType, p.PaymentType)
	setIf(&b.Currency, p.Currency)
	setIf(&b.DebitAccount, p.DebitAccount)
	setIf(&b.AccountType, p.AccountType)
	setIf(&b.PaymentDate, p.PaymentDate)

	if p.Status == nil || model.BatchStatus(*p.Status) == model.BatchStatusDraft {
		return s.writeDraft(ctx, b)
	}
	return s.submit(ctx, b)
}

// Submit moves a draft batch to submitted and publishes batch.submitted.
func (s *BatchService) Submit(ctx context.Context, id string) (model.Batch, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.draft(ctx, id)
	if err != nil {
		return model.Batch{}, err
	}
	return s.submit(ctx, b)
}

// writeDraft saves b only while the stored batch is still a draft.
func (s *BatchService) writeDraft(ctx context.Context, b model.Batch) (model.Batch, error) {
	b.Status = model.BatchStatusDraft
	saved, ok, err := s.ds.BatchStates().UpdateIfStatus(ctx, &b, model.BatchStatusDraft)
	if err != nil {
		return model.Batch{}, err
	}
	if !ok {
		return model.Batch{}, fmt.Errorf("%w: batch %s is no longer a draft", ErrConflict, b.ID)
	}
	return *saved, nil
}

// submit は呼び出し側でバッチのロックを保持している前提です。
// draft → submitted の書き込みは条件付きで、勝った 1 回だけがイベントを送ります。
func (s *BatchService) submit(ctx context.Context, b model.Batch) (model.Batch, error) {
	entries, err := s.ds.PayrollEntries().FindByBatchID(ctx, b.ID)
	if err != nil {
		return model.Batch{}, err
	}
	if err := checkSubmittable(b, entries); err != nil {
		return model.Batch{}, err
	}
	b.Status = model.BatchStatusSubmitted
	saved, ok, err := s.ds.BatchStates().UpdateIfStatus(ctx, &b, model.BatchStatusDraft)
	if err != nil {
		return model.Batch{}, err
	}
	if !ok {
		return model.Batch{}, fmt.Errorf("%w: batch %s is already submitted", ErrConflict, b.ID)
	}
	slog.InfoContext(ctx, "batch submitted", slog.String("batch_id", saved.ID), slog.Int("entries", len(entries)))

	s.publish(ctx, messaging.Event{
		Type: EventBatchSubmitted,
		Key:  saved.ID,
		At:   saved.UpdatedAt,
		Payload: BatchSubmitted{
			BatchID:     saved.ID,
			PaymentType: saved.PaymentType,
			Currency:    saved.Currency,
			PaymentDate: saved.PaymentDate,
			EntryCount:  len(entries),
			TotalAmount: total(entries),
			SubmittedAt: saved.UpdatedAt,
		},
	})
	return *saved, nil
}

// publish はリクエストを待たせないよう非同期で送信します。失敗はログのみ（提出は取り消さない）。
func (s *BatchService) publish(ctx context.Context, ev messaging.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.events.Publish(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "publish event failed",
				slog.String("type", ev.Type),
				slog.String("key", ev.Key),
				slog.Any("error", err),
			)
		}
	}()
}

// Wait blocks until every in-flight event publication has finished.
func (s *BatchService) Wait() { s.inflight.Wait() }

func checkSubmittable(b model.Batch, entries []model.PayrollEntry) error {
	var problems []error
	if b.DebitAccount == "" {
		problems = append(problems, errors.New("debitAccount is required"))
	}
	if b.PaymentDate == "" {
		problems = append(problems, errors.New("paymentDate is required"))
	}
	if len(entries) == 0 {
		problems = append(problems, errors.New("batch has no entries"))
	}
	for _, e := range entries {
		if e.Amount <= 0 {
			problems = append(problems, fmt.Errorf("entry %s: amount must be positive", e.ID))
		}
		if e.PayeeName == "" {
			problems = append(problems, fmt.Errorf("entry %s: payeeName is required", e.ID))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: cannot submit batch %s: %w", ErrInvalidInput, b.ID, errors.Join(problems...))
	}
	return nil
}

func (s *BatchService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.draft(ctx, id); err != nil {
		return err
	}
	deleted, err := s.ds.BatchStates().DeleteIfStatus(ctx, id, model.BatchStatusDraft)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: batch %s is no longer a draft", ErrConflict, id)
	}
	// FK の ON DELETE CASCADE が無効な接続でも孤児を残さない
	if _, err := s.ds.PayrollEntries().DeleteByBatchID(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "batch deleted", slog.String("batch_id", id))
	return nil
}

func (s *BatchService) Summary(ctx context.Context, id string) (BatchSummary, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return BatchSummary{}, err
	}
	entries, err := s.ds.PayrollEntries().FindByBatchID(ctx, id)
	if err != nil {
		return BatchSummary{}, err
	}
	return BatchSummary{
		BatchID:     b.ID,
		Status:      b.Status,
		EntryCount:  len(entries),
		TotalAmount: total(entries),
	}, nil
}

// draft loads a batch that can still be modified.
func (s *BatchService) draft(ctx context.Context, id string) (model.Batch, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return model.Batch{}, err
	}
	if b.Submitted() {
		return model.Batch{}, fmt.Errorf("%w: batch %s is already submitted", ErrConflict, id)
	}
	return b, nil
}

func total(entries []model.PayrollEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += float64(e.Amount)
	}
	// 浮動小数の誤差を 2 桁に丸める
	return math.Round(sum*100) / 100
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
