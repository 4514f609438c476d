package model

import "time"

type BatchStatus string

const (
	BatchStatusDraft     BatchStatus = "draft"
	BatchStatusSubmitted BatchStatus = "submitted"
)

const (
	PaymentTypeDomestic      = "Domestic"
	PaymentTypeInternational = "International"
)

// Batch は給与支払いのまとまり（バッチ）です。ID は文字列キーです。
type Batch struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	PaymentType  string      `json:"paymentType" db:"payment_type"`
	Currency     string      `json:"currency" db:"currency"`
	DebitAccount string      `json:"debitAccount" db:"debit_account"`
	AccountType  string      `json:"accountType" db:"account_type"`
	PaymentDate  string      `json:"paymentDate" db:"payment_date"` // YYYY-MM-DD
	Status       BatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

func (b *Batch) Submitted() bool { return b.Status == BatchStatusSubmitted }
