package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type Service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) RegisterPatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, apperrors.Validation("full name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, apperrors.Validation("phone is required")
	}

	code, err := s.repo.NextCode(ctx)
	if err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Code:           code,
		FullName:       req.FullName,
		Gender:         req.Gender,
		DateOfBirth:    req.DateOfBirth,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		Occupation:     req.Occupation,
		EmergencyName:  req.EmergencyName,
		EmergencyPhone: req.EmergencyPhone,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, filter *model.PatientFilter) ([]*model.Patient, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// UpdatePatient applies a partial update. The patient code is never
// touched; it is immutable once assigned.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return nil, apperrors.Validation("full name is required")
		}
		patient.FullName = *req.FullName
	}
	if req.Phone != nil {
		if strings.TrimSpace(*req.Phone) == "" {
			return nil, apperrors.Validation("phone is required")
		}
		patient.Phone = *req.Phone
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.Occupation != nil {
		patient.Occupation = *req.Occupation
	}
	if req.EmergencyName != nil {
		patient.EmergencyName = *req.EmergencyName
	}
	if req.EmergencyPhone != nil {
		patient.EmergencyPhone = *req.EmergencyPhone
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// ToggleActive soft-blocks or unblocks a patient. Patients are never
// hard-deleted so invoices keep valid references.
func (s *Service) ToggleActive(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patient.IsActive = !patient.IsActive
	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}
