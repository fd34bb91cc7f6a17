package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type invoiceRepository struct {
	BaseRepository
}

func NewInvoiceRepository(base BaseRepository) repository.InvoiceRepository {
	return &invoiceRepository{base}
}

const invoiceColumns = `id, number, patient_id, case_sheet_id, subtotal, discount, discount_type, discount_amount, tax_percent, tax_amount, total, paid_amount, status, notes, created_at, updated_at`

// Create persists the invoice, its line items, the optional cost
// breakdown and the outbox event in a single transaction. The caller
// assigns entity ids up front so the event payload already carries
// them. Referenced procedures are claimed with a conditional update;
// if any of them is no longer billable the whole transaction rolls
// back.
func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice, costs *model.CostBreakdown, procedureIDs []uuid.UUID, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if len(procedureIDs) > 0 {
			if err := claimProcedures(ctx, tx, procedureIDs); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO invoices (` + invoiceColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`
		if _, err := tx.ExecContext(ctx, query,
			invoice.ID,
			invoice.Number,
			invoice.PatientID,
			invoice.CaseSheetID,
			invoice.Subtotal,
			invoice.Discount,
			invoice.DiscountType,
			invoice.DiscountAmount,
			invoice.TaxPercent,
			invoice.TaxAmount,
			invoice.Total,
			invoice.PaidAmount,
			invoice.Status,
			invoice.Notes,
			invoice.CreatedAt,
			invoice.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		for i := range invoice.Items {
			item := &invoice.Items[i]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_items (id, invoice_id, procedure_id, description, amount)
				VALUES ($1, $2, $3, $4, $5)
			`, item.ID, item.InvoiceID, item.ProcedureID, item.Description, item.Amount); err != nil {
				return fmt.Errorf("failed to create invoice item: %w", err)
			}
		}

		if costs != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cost_breakdowns (id, invoice_id, doctor_fee, lab_charge, other_expense, profit)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, costs.ID, costs.InvoiceID, costs.DoctorFee, costs.LabCharge, costs.OtherExpense, costs.Profit); err != nil {
				return fmt.Errorf("failed to create cost breakdown: %w", err)
			}
		}

		return insertOutboxEvent(ctx, tx, event)
	})
}

// claimProcedures flips is_billable on every referenced procedure in
// one statement. The WHERE clause only matches procedures that are
// still completed and billable, so a row count short of len(ids) means
// at least one procedure was already billed or never completed.
func claimProcedures(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) error {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE procedures
		SET is_billable = false, updated_at = now()
		WHERE id = ANY($1) AND is_completed = true AND is_billable = true
	`, pq.Array(strIDs))
	if err != nil {
		return fmt.Errorf("failed to claim procedures: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows != int64(len(ids)) {
		return apperrors.ProcedureNotEligible("one or more procedures are not eligible for billing")
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if event == nil {
		return nil
	}
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	event.CreatedAt = time.Now()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, event.ID, event.EventType, event.Payload, event.Status, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("invoice", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if err := r.db.SelectContext(ctx, &invoice.Items, `
		SELECT id, invoice_id, procedure_id, description, amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY description
	`, id); err != nil {
		return nil, fmt.Errorf("failed to load invoice items: %w", err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *model.InvoiceFilter) ([]*model.Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.PatientID != uuid.Nil {
		where += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, filter.PatientID)
		idx++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, filter.Status)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM invoices`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, filter.Limit, filter.Offset())

	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepository) NextNumber(ctx context.Context, year int) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('invoice_number_seq')`); err != nil {
		return "", fmt.Errorf("failed to get next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%d-%06d", year, seq), nil
}

// ApplyPayment inserts the payment and advances the invoice's paid
// amount under a compare-and-swap on the previously read value. It
// returns false when the invoice moved underneath the caller, in which
// case nothing was written.
func (r *invoiceRepository) ApplyPayment(ctx context.Context, payment *model.Payment, expectedPaid, newPaid decimal.Decimal, status model.InvoiceStatus, event *model.OutboxEvent) (bool, error) {
	applied := false

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE invoices
			SET paid_amount = $1, status = $2, updated_at = now()
			WHERE id = $3 AND paid_amount = $4
		`, newPaid, status, payment.InvoiceID, expectedPaid)
		if err != nil {
			return fmt.Errorf("failed to update invoice paid amount: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return errPaymentConflict
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments (id, invoice_id, amount, mode, reference, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, payment.ID, payment.InvoiceID, payment.Amount, payment.Mode, payment.Reference, payment.Notes, payment.CreatedAt, payment.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		applied = true
		return insertOutboxEvent(ctx, tx, event)
	})

	if errors.Is(err, errPaymentConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return applied, nil
}

// errPaymentConflict is internal to the CAS protocol; callers see a
// false "applied" result instead.
var errPaymentConflict = errors.New("invoice paid amount changed concurrently")

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*model.Payment, error) {
	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, `
		SELECT id, invoice_id, amount, mode, reference, notes, created_at, updated_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY created_at ASC
	`, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
