package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(base BaseRepository) repository.ReportRepository {
	return &reportRepository{base}
}

func (r *reportRepository) DailyCollection(ctx context.Context, day time.Time) ([]*model.DailyCollectionRow, error) {
	query := `
		SELECT mode, count(*) AS count, coalesce(sum(amount), 0) AS total
		FROM payments
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY mode
		ORDER BY mode
	`
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var rows []*model.DailyCollectionRow
	if err := r.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to load daily collection: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) MonthlyRevenue(ctx context.Context, year int) ([]*model.MonthlyRevenueRow, error) {
	query := `
		SELECT m.month,
		       coalesce(i.invoice_count, 0) AS invoice_count,
		       coalesce(i.billed, 0) AS billed,
		       coalesce(p.collected, 0) AS collected
		FROM generate_series(1, 12) AS m(month)
		LEFT JOIN (
			SELECT extract(month FROM created_at)::int AS month,
			       count(*) AS invoice_count,
			       sum(total) AS billed
			FROM invoices
			WHERE extract(year FROM created_at) = $1
			GROUP BY 1
		) i ON i.month = m.month
		LEFT JOIN (
			SELECT extract(month FROM created_at)::int AS month,
			       sum(amount) AS collected
			FROM payments
			WHERE extract(year FROM created_at) = $1
			GROUP BY 1
		) p ON p.month = m.month
		ORDER BY m.month
	`
	var rows []*model.MonthlyRevenueRow
	if err := r.db.SelectContext(ctx, &rows, query, year); err != nil {
		return nil, fmt.Errorf("failed to load monthly revenue: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) ProcedureStats(ctx context.Context, from, to time.Time) ([]*model.ProcedureStatRow, error) {
	query := `
		SELECT p.name, count(*) AS count, coalesce(sum(ii.amount), 0) AS revenue
		FROM invoice_items ii
		JOIN procedures p ON p.id = ii.procedure_id
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE i.created_at >= $1 AND i.created_at < $2
		GROUP BY p.name
		ORDER BY revenue DESC
	`
	var rows []*model.ProcedureStatRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to load procedure stats: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) NewPatients(ctx context.Context, year int) ([]*model.NewPatientRow, error) {
	query := `
		SELECT m.month, coalesce(p.count, 0) AS count
		FROM generate_series(1, 12) AS m(month)
		LEFT JOIN (
			SELECT extract(month FROM created_at)::int AS month, count(*) AS count
			FROM patients
			WHERE extract(year FROM created_at) = $1
			GROUP BY 1
		) p ON p.month = m.month
		ORDER BY m.month
	`
	var rows []*model.NewPatientRow
	if err := r.db.SelectContext(ctx, &rows, query, year); err != nil {
		return nil, fmt.Errorf("failed to load new patient counts: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) OutstandingInvoices(ctx context.Context) ([]*model.OutstandingInvoiceRow, error) {
	query := `
		SELECT i.number AS invoice_number,
		       p.full_name AS patient_name,
		       i.total,
		       i.paid_amount,
		       i.total - i.paid_amount AS outstanding,
		       i.created_at
		FROM invoices i
		JOIN patients p ON p.id = i.patient_id
		WHERE i.status != $1
		ORDER BY i.created_at ASC
	`
	var rows []*model.OutstandingInvoiceRow
	if err := r.db.SelectContext(ctx, &rows, query, model.InvoiceStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
	}
	return rows, nil
}
