// Package seed loads fixture batches from YAML into a datastore.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kawabatas/payroll-batch/internal/domain/model"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
)

type File struct {
	Batches []Batch `yaml:"batches"`
}

type Batch struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	PaymentType  string  `yaml:"paymentType"`
	Currency     string  `yaml:"currency"`
	DebitAccount string  `yaml:"debitAccount"`
	AccountType  string  `yaml:"accountType"`
	PaymentDate  string  `yaml:"paymentDate"`
	Status       string  `yaml:"status"`
	Entries      []Entry `yaml:"entries"`
}

type Entry struct {
	ID               string  `yaml:"id"`
	Method           string  `yaml:"method"`
	PayeeDetails     string  `yaml:"payeeDetails"`
	PayeeName        string  `yaml:"payeeName"`
	BankDetails      string  `yaml:"bankDetails"`
	YourReference    string  `yaml:"yourReference"`
	PaymentReference string  `yaml:"paymentReference"`
	Amount           float64 `yaml:"amount"`
	Notes            string  `yaml:"notes"`
}

// Result reports what Apply wrote.
type Result struct {
	Skipped bool
	Batches int
	Entries int
}

// Load decodes a seed document. 未知のキーはエラーにする（typo 検出のため）。
func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	for i, b := range f.Batches {
		if b.ID == "" {
			return File{}, fmt.Errorf("seed batch #%d: id is required", i+1)
		}
		switch model.BatchStatus(b.Status) {
		case "", model.BatchStatusDraft, model.BatchStatusSubmitted:
		default:
			return File{}, fmt.Errorf("seed batch %s: unknown status %q", b.ID, b.Status)
		}
		for j, e := range b.Entries {
			if math.IsInf(e.Amount, 0) || math.IsNaN(e.Amount) {
				return File{}, fmt.Errorf("seed batch %s entry #%d: amount must be finite", b.ID, j+1)
			}
		}
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fp.Close()
	return Load(fp)
}

// Apply writes f into ds. When the store already holds batches it does
// nothing unless force is set; forced seeding upserts by id.
func Apply(ctx context.Context, ds datastore.DataStore, f File, force bool) (Result, error) {
	n, err := ds.Batches().Count(ctx)
	if err != nil {
		return Result{}, err
	}
	if n > 0 && !force {
		slog.InfoContext(ctx, "seed skipped: store is not empty", slog.Int64("batches", n))
		return Result{Skipped: true}, nil
	}

	var res Result
	for _, sb := range f.Batches {
		b := model.Batch{
			ID:           sb.ID,
			Name:         sb.Name,
			PaymentType:  orDefault(sb.PaymentType, model.PaymentTypeDomestic),
			Currency:     orDefault(sb.Currency, "INR"),
			DebitAccount: sb.DebitAccount,
			AccountType:  sb.AccountType,
			PaymentDate:  sb.PaymentDate,
			Status:       model.BatchStatus(orDefault(sb.Status, string(model.BatchStatusDraft))),
		}
		if _, err := ds.Batches().Save(ctx, &b); err != nil {
			return res, fmt.Errorf("seed batch %s: %w", b.ID, err)
		}
		res.Batches++
		for i, se := range sb.Entries {
			e := model.PayrollEntry{
				// id 省略時は位置から決める。--force で再投入しても重複しない
				ID:               orDefault(se.ID, fmt.Sprintf("%s-%d", b.ID, i+1)),
				BatchID:          b.ID,
				Method:           se.Method,
				PayeeDetails:     se.PayeeDetails,
				PayeeName:        se.PayeeName,
				BankDetails:      se.BankDetails,
				YourReference:    se.YourReference,
				PaymentReference: se.PaymentReference,
				Amount:           model.Amount(se.Amount),
				Notes:            se.Notes,
			}
			if _, err := ds.PayrollEntries().Save(ctx, &e); err != nil {
				return res, fmt.Errorf("seed entry of batch %s: %w", b.ID, err)
			}
			res.Entries++
		}
	}
	slog.InfoContext(ctx, "seed applied", slog.Int("batches", res.Batches), slog.Int("entries", res.Entries))
	return res, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
