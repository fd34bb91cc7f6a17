package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType tags how the invoice discount value is interpreted
type DiscountType string

const (
	DiscountFixed      DiscountType = "FIXED"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// InvoiceStatus is derived from paid_amount vs total, never set directly
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// DeriveInvoiceStatus returns the status implied by the running paid
// amount. Overpayment is treated as fully paid.
func DeriveInvoiceStatus(paidAmount, total decimal.Decimal) InvoiceStatus {
	switch {
	case paidAmount.LessThanOrEqual(decimal.Zero):
		return InvoiceStatusUnpaid
	case paidAmount.LessThan(total):
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusPaid
	}
}

// Invoice is a financial record. Line items are immutable after
// creation; only payments move an invoice through its lifecycle.
type Invoice struct {
	Base
	Number         string          `json:"number" db:"number"`
	PatientID      uuid.UUID       `json:"patient_id" db:"patient_id"`
	CaseSheetID    *uuid.UUID      `json:"case_sheet_id" db:"case_sheet_id"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	DiscountType   DiscountType    `json:"discount_type" db:"discount_type"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TaxPercent     decimal.Decimal `json:"tax_percent" db:"tax_percent"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	Total          decimal.Decimal `json:"total" db:"total"`
	PaidAmount     decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Status         InvoiceStatus   `json:"status" db:"status"`
	Notes          string          `json:"notes" db:"notes"`
	Items          []InvoiceItem   `json:"items" db:"-"`
}

// Outstanding returns the balance still owed on the invoice
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.Total.Sub(i.PaidAmount)
}

// InvoiceItem is one charge line: either a billed procedure or a
// free-text treatment charge.
type InvoiceItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	ProcedureID *uuid.UUID      `json:"procedure_id" db:"procedure_id"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
}

// CostBreakdown is the internal cost side-ledger for an invoice. The
// figures track clinic profit and never contribute to the patient-facing
// total.
type CostBreakdown struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	InvoiceID    uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	DoctorFee    decimal.Decimal `json:"doctor_fee" db:"doctor_fee"`
	LabCharge    decimal.Decimal `json:"lab_charge" db:"lab_charge"`
	OtherExpense decimal.Decimal `json:"other_expense" db:"other_expense"`
	Profit       decimal.Decimal `json:"profit" db:"profit"`
}

type InvoiceItemRequest struct {
	ProcedureID *uuid.UUID      `json:"procedure_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

type CostBreakdownRequest struct {
	DoctorFee    decimal.Decimal `json:"doctor_fee"`
	LabCharge    decimal.Decimal `json:"lab_charge"`
	OtherExpense decimal.Decimal `json:"other_expense"`
}

type CreateInvoiceRequest struct {
	PatientID    uuid.UUID             `json:"patient_id" binding:"required"`
	CaseSheetID  *uuid.UUID            `json:"case_sheet_id"`
	Items        []InvoiceItemRequest  `json:"items" binding:"required,min=1,dive"`
	Discount     decimal.Decimal       `json:"discount"`
	DiscountType DiscountType          `json:"discount_type" binding:"omitempty,oneof=FIXED PERCENTAGE"`
	TaxPercent   decimal.Decimal       `json:"tax_percent"`
	Notes        string                `json:"notes"`
	Costs        *CostBreakdownRequest `json:"costs"`
}

type InvoiceFilter struct {
	PatientID uuid.UUID `form:"patient_id"`
	Status    string    `form:"status"`
	Pagination
}
