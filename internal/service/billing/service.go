package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
	"github.com/dentalbuddy/clinic-api/pkg/metrics"
)

// maxPaymentAttempts bounds the compare-and-swap retry loop when two
// payments race on the same invoice.
const maxPaymentAttempts = 3

var hundred = decimal.NewFromInt(100)

type Service struct {
	repo          repository.InvoiceRepository
	procedureRepo repository.ProcedureRepository
	patientRepo   repository.PatientRepository
	metrics       *metrics.Metrics
}

func NewService(repo repository.InvoiceRepository, procedureRepo repository.ProcedureRepository, patientRepo repository.PatientRepository) *Service {
	return &Service{
		repo:          repo,
		procedureRepo: procedureRepo,
		patientRepo:   patientRepo,
	}
}

// WithMetrics enables conflict counting on the payment path.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Totals is the computed money breakdown of an invoice.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeTotals applies the discount and tax rules to a set of line
// amounts:
//
//	subtotal       = sum(amounts)
//	discountAmount = discount (FIXED) or subtotal*discount/100
//	taxAmount      = (subtotal - discountAmount) * taxPercent / 100
//	total          = subtotal - discountAmount + taxAmount
//
// All figures are rounded to 2 decimal places.
func ComputeTotals(amounts []decimal.Decimal, discount decimal.Decimal, discountType model.DiscountType, taxPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, amount := range amounts {
		subtotal = subtotal.Add(amount)
	}
	subtotal = subtotal.Round(2)

	var discountAmount decimal.Decimal
	if discountType == model.DiscountPercentage {
		discountAmount = subtotal.Mul(discount).Div(hundred).Round(2)
	} else {
		discountAmount = discount.Round(2)
	}

	taxable := subtotal.Sub(discountAmount)
	taxAmount := taxable.Mul(taxPercent).Div(hundred).Round(2)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          taxable.Add(taxAmount).Round(2),
	}
}

// CreateInvoice validates the request, claims any referenced
// procedures and persists the invoice atomically. Line items are
// immutable afterwards; the invoice only changes through payments.
func (s *Service) CreateInvoice(ctx context.Context, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.Validation("invoice requires at least one line item")
	}
	if req.Discount.IsNegative() {
		return nil, apperrors.Validation("discount cannot be negative")
	}
	if req.TaxPercent.IsNegative() {
		return nil, apperrors.Validation("tax percent cannot be negative")
	}
	discountType := req.DiscountType
	if discountType == "" {
		discountType = model.DiscountFixed
	}

	if _, err := s.patientRepo.Get(ctx, req.PatientID); err != nil {
		return nil, err
	}

	amounts := make([]decimal.Decimal, 0, len(req.Items))
	items := make([]model.InvoiceItem, 0, len(req.Items))
	procedureIDs := make([]uuid.UUID, 0, len(req.Items))

	for i, itemReq := range req.Items {
		if !itemReq.Amount.IsPositive() {
			return nil, apperrors.Validationf("line item %d: amount must be greater than zero", i+1)
		}

		description := strings.TrimSpace(itemReq.Description)
		if itemReq.ProcedureID != nil {
			procedure, err := s.procedureRepo.Get(ctx, *itemReq.ProcedureID)
			if err != nil {
				return nil, err
			}
			if procedure.PatientID != req.PatientID {
				return nil, apperrors.Validationf("line item %d: procedure belongs to a different patient", i+1)
			}
			if !procedure.IsCompleted || !procedure.IsBillable {
				return nil, apperrors.ProcedureNotEligible(
					fmt.Sprintf("procedure %q is not eligible for billing", procedure.Name))
			}
			if description == "" {
				description = procedure.Name
			}
			procedureIDs = append(procedureIDs, procedure.ID)
		}
		if description == "" {
			return nil, apperrors.Validationf("line item %d: description is required", i+1)
		}

		amounts = append(amounts, itemReq.Amount)
		items = append(items, model.InvoiceItem{
			ProcedureID: itemReq.ProcedureID,
			Description: description,
			Amount:      itemReq.Amount.Round(2),
		})
	}

	totals := ComputeTotals(amounts, req.Discount, discountType, req.TaxPercent)
	if !totals.Total.IsPositive() {
		return nil, apperrors.Validation("invoice total must be greater than zero")
	}

	number, err := s.repo.NextNumber(ctx, time.Now().Year())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoice := &model.Invoice{
		Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Number:         number,
		PatientID:      req.PatientID,
		CaseSheetID:    req.CaseSheetID,
		Subtotal:       totals.Subtotal,
		Discount:       req.Discount.Round(2),
		DiscountType:   discountType,
		DiscountAmount: totals.DiscountAmount,
		TaxPercent:     req.TaxPercent,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
		PaidAmount:     decimal.Zero,
		Status:         model.InvoiceStatusUnpaid,
		Notes:          req.Notes,
		Items:          items,
	}
	for i := range invoice.Items {
		invoice.Items[i].ID = uuid.New()
		invoice.Items[i].InvoiceID = invoice.ID
	}

	costs, err := buildCostBreakdown(req.Costs, totals.Subtotal)
	if err != nil {
		return nil, err
	}
	if costs != nil {
		costs.ID = uuid.New()
		costs.InvoiceID = invoice.ID
	}

	// Identifiers are assigned before the payload is marshaled so the
	// published event carries the real invoice id.
	event, err := newOutboxEvent(model.EventInvoiceCreated, invoice)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, invoice, costs, procedureIDs, event); err != nil {
		return nil, err
	}
	return invoice, nil
}

// buildCostBreakdown derives the internal profit figure from the cost
// fields. None of these amounts ever reaches the patient-facing total.
func buildCostBreakdown(req *model.CostBreakdownRequest, charges decimal.Decimal) (*model.CostBreakdown, error) {
	if req == nil {
		return nil, nil
	}
	if req.DoctorFee.IsNegative() || req.LabCharge.IsNegative() || req.OtherExpense.IsNegative() {
		return nil, apperrors.Validation("cost amounts cannot be negative")
	}

	costs := req.DoctorFee.Add(req.LabCharge).Add(req.OtherExpense)
	return &model.CostBreakdown{
		DoctorFee:    req.DoctorFee.Round(2),
		LabCharge:    req.LabCharge.Round(2),
		OtherExpense: req.OtherExpense.Round(2),
		Profit:       charges.Sub(costs).Round(2),
	}, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, filter *model.InvoiceFilter) ([]*model.Invoice, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*model.Payment, error) {
	if _, err := s.repo.Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, invoiceID)
}

// AddPayment appends a payment and advances the invoice status. The
// outstanding-balance check and the paid-amount write happen under a
// compare-and-swap: on conflict the state is re-read and re-validated,
// so two racing payments can never drive paid_amount past total.
func (s *Service) AddPayment(ctx context.Context, req *model.CreatePaymentRequest) (*model.PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.Validation("payment amount must be greater than zero")
	}

	for attempt := 0; attempt < maxPaymentAttempts; attempt++ {
		invoice, err := s.repo.Get(ctx, req.InvoiceID)
		if err != nil {
			return nil, err
		}

		outstanding := invoice.Outstanding()
		if req.Amount.GreaterThan(outstanding) {
			return nil, apperrors.OverpaymentRejected(
				fmt.Sprintf("payment of %s exceeds outstanding balance of %s", req.Amount.StringFixed(2), outstanding.StringFixed(2)))
		}

		now := time.Now()
		payment := &model.Payment{
			Base:      model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			InvoiceID: invoice.ID,
			Amount:    req.Amount.Round(2),
			Mode:      req.Mode,
			Reference: req.Reference,
			Notes:     req.Notes,
		}

		newPaid := invoice.PaidAmount.Add(payment.Amount)
		newStatus := model.DeriveInvoiceStatus(newPaid, invoice.Total)

		event, err := newOutboxEvent(model.EventPaymentRecorded, payment)
		if err != nil {
			return nil, err
		}

		applied, err := s.repo.ApplyPayment(ctx, payment, invoice.PaidAmount, newPaid, newStatus, event)
		if err != nil {
			return nil, err
		}
		if applied {
			invoice.PaidAmount = newPaid
			invoice.Status = newStatus
			return &model.PaymentResult{Payment: payment, Invoice: invoice}, nil
		}
		if s.metrics != nil {
			s.metrics.PaymentConflicts.Inc()
		}
		// Lost the race; re-read and re-validate against fresh state.
	}

	return nil, apperrors.ConcurrentModification("invoice")
}

func newOutboxEvent(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
	}, nil
}
