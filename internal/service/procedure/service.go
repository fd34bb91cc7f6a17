package procedure

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type Service struct {
	repo        repository.ProcedureRepository
	patientRepo repository.PatientRepository
}

func NewService(repo repository.ProcedureRepository, patientRepo repository.PatientRepository) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
	}
}

func (s *Service) CreateProcedure(ctx context.Context, patientID uuid.UUID, req *model.CreateProcedureRequest) (*model.Procedure, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.Validation("procedure name is required")
	}
	if _, err := s.patientRepo.Get(ctx, patientID); err != nil {
		return nil, err
	}

	procedure := &model.Procedure{
		PatientID:   patientID,
		Name:        req.Name,
		ToothNumber: req.ToothNumber,
		IsCompleted: false,
		IsBillable:  false,
	}
	if err := s.repo.Create(ctx, procedure); err != nil {
		return nil, err
	}
	return procedure, nil
}

func (s *Service) GetProcedure(ctx context.Context, id uuid.UUID) (*model.Procedure, error) {
	return s.repo.Get(ctx, id)
}

// CompleteProcedure marks a procedure done, which makes it eligible
// for billing until an invoice claims it.
func (s *Service) CompleteProcedure(ctx context.Context, id uuid.UUID) (*model.Procedure, error) {
	procedure, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if procedure.IsCompleted {
		return procedure, nil
	}

	procedure.IsCompleted = true
	procedure.IsBillable = true
	if err := s.repo.Update(ctx, procedure); err != nil {
		return nil, err
	}
	return procedure, nil
}

func (s *Service) ListProcedures(ctx context.Context, filter *model.ProcedureFilter) ([]*model.Procedure, error) {
	return s.repo.ListByPatient(ctx, filter)
}
