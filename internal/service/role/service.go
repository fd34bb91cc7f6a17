package role

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type Service struct {
	repo repository.RoleRepository
}

func NewService(repo repository.RoleRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateRole(ctx context.Context, req *model.CreateRoleRequest) (*model.Role, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, apperrors.Validation("role code is required")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, apperrors.Validation("display name is required")
	}
	if req.Permissions == nil {
		req.Permissions = model.PermissionSet{}
	}
	if err := req.Permissions.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if existing, err := s.repo.GetByCode(ctx, code); err == nil && existing != nil {
		return nil, apperrors.Duplicate("role code already exists")
	}

	role := &model.Role{
		Code:           code,
		DisplayName:    req.DisplayName,
		Description:    req.Description,
		Icon:           req.Icon,
		IsProfessional: req.IsProfessional,
		IsSystemRole:   false,
		IsActive:       true,
		Permissions:    req.Permissions,
	}

	if err := s.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListRoles(ctx context.Context, filter *model.RoleFilter) ([]*model.Role, error) {
	return s.repo.List(ctx, filter)
}

// UpdateRole applies a partial update to a custom role. A non-nil
// Permissions map replaces the entire grant map.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, req *model.UpdateRoleRequest) (*model.Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystemRole {
		return nil, apperrors.SystemRoleImmutable()
	}

	if req.DisplayName != nil {
		if strings.TrimSpace(*req.DisplayName) == "" {
			return nil, apperrors.Validation("display name is required")
		}
		role.DisplayName = *req.DisplayName
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Icon != nil {
		role.Icon = *req.Icon
	}
	if req.IsProfessional != nil {
		role.IsProfessional = *req.IsProfessional
	}
	if req.Permissions != nil {
		if err := req.Permissions.Validate(); err != nil {
			return nil, apperrors.Validation(err.Error())
		}
		role.Permissions = req.Permissions
	}

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) ToggleActive(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystemRole {
		return nil, apperrors.SystemRoleImmutable()
	}

	role.IsActive = !role.IsActive
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole hard-deletes a custom role, but only when no active user
// still references it.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystemRole {
		return apperrors.SystemRoleImmutable()
	}

	count, err := s.repo.CountActiveUsers(ctx, role.Code)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.RoleInUse()
	}

	return s.repo.Delete(ctx, id)
}
