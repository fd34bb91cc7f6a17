package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode is the tender type of a payment
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeCard         PaymentMode = "CARD"
	PaymentModeUPI          PaymentMode = "UPI"
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeCheque       PaymentMode = "CHEQUE"
)

// Payment is an append-only ledger entry against an invoice. Payments
// are never edited or deleted once recorded.
type Payment struct {
	Base
	InvoiceID uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Mode      PaymentMode     `json:"mode" db:"mode"`
	Reference string          `json:"reference" db:"reference"`
	Notes     string          `json:"notes" db:"notes"`
}

type CreatePaymentRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Mode      PaymentMode     `json:"mode" binding:"required,oneof=CASH CARD UPI BANK_TRANSFER CHEQUE"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// PaymentResult bundles the created payment with the updated invoice
// snapshot so callers can reconcile without a re-fetch.
type PaymentResult struct {
	Payment *Payment `json:"payment"`
	Invoice *Invoice `json:"invoice"`
}
