package report

import (
	"context"
	"time"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

// Service answers read-only reporting queries. All figures are derived
// from the invoice and payment tables at query time; nothing here
// writes state.
type Service struct {
	repo repository.ReportRepository
}

func NewService(repo repository.ReportRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) DailyCollection(ctx context.Context, day time.Time) ([]*model.DailyCollectionRow, error) {
	return s.repo.DailyCollection(ctx, day)
}

func (s *Service) MonthlyRevenue(ctx context.Context, year int) ([]*model.MonthlyRevenueRow, error) {
	if year < 2000 || year > 2100 {
		return nil, apperrors.Validation("year out of range")
	}
	return s.repo.MonthlyRevenue(ctx, year)
}

func (s *Service) ProcedureStats(ctx context.Context, from, to time.Time) ([]*model.ProcedureStatRow, error) {
	if to.Before(from) {
		return nil, apperrors.Validation("end of range precedes start")
	}
	return s.repo.ProcedureStats(ctx, from, to)
}

func (s *Service) NewPatients(ctx context.Context, year int) ([]*model.NewPatientRow, error) {
	if year < 2000 || year > 2100 {
		return nil, apperrors.Validation("year out of range")
	}
	return s.repo.NewPatients(ctx, year)
}

func (s *Service) OutstandingInvoices(ctx context.Context) ([]*model.OutstandingInvoiceRow, error) {
	return s.repo.OutstandingInvoices(ctx)
}
