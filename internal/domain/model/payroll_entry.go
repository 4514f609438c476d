package model

import "time"

// PayrollEntry is one payee line inside a Batch.
type PayrollEntry struct {
	ID               string    `json:"id" db:"id"`
	BatchID          string    `json:"batchId" db:"batch_id"`
	Method           string    `json:"method" db:"method"`
	PayeeDetails     string    `json:"payeeDetails" db:"payee_details"`
	PayeeName        string    `json:"payeeName" db:"payee_name"`
	BankDetails      string    `json:"bankDetails" db:"bank_details"`
	YourReference    string    `json:"yourReference" db:"your_reference"`
	PaymentReference string    `json:"paymentReference" db:"payment_reference"`
	Amount           Amount    `json:"amount" db:"amount"`
	Notes            string    `json:"notes" db:"notes"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}
