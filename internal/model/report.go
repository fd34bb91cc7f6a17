package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyCollectionRow aggregates a day's payments by mode
type DailyCollectionRow struct {
	Mode  PaymentMode     `json:"mode" db:"mode"`
	Count int             `json:"count" db:"count"`
	Total decimal.Decimal `json:"total" db:"total"`
}

// MonthlyRevenueRow aggregates invoicing and collection per month
type MonthlyRevenueRow struct {
	Month        int             `json:"month" db:"month"`
	InvoiceCount int             `json:"invoice_count" db:"invoice_count"`
	Billed       decimal.Decimal `json:"billed" db:"billed"`
	Collected    decimal.Decimal `json:"collected" db:"collected"`
}

// ProcedureStatRow aggregates billed procedures by name
type ProcedureStatRow struct {
	Name    string          `json:"name" db:"name"`
	Count   int             `json:"count" db:"count"`
	Revenue decimal.Decimal `json:"revenue" db:"revenue"`
}

// NewPatientRow counts registrations per month
type NewPatientRow struct {
	Month int `json:"month" db:"month"`
	Count int `json:"count" db:"count"`
}

// OutstandingInvoiceRow lists invoices with an unpaid balance
type OutstandingInvoiceRow struct {
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	PatientName   string          `json:"patient_name" db:"patient_name"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Outstanding   decimal.Decimal `json:"outstanding" db:"outstanding"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
