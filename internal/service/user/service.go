package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"
	"github.com/dentalbuddy/clinic-api/pkg/security"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type Service struct {
	repo     repository.UserRepository
	roleRepo repository.RoleRepository
	hasher   security.PasswordHasher
}

func NewService(repo repository.UserRepository, roleRepo repository.RoleRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		repo:     repo,
		roleRepo: roleRepo,
		hasher:   hasher,
	}
}

// resolveAssignableRole checks that the role exists, is active and is
// not a system role. System roles carry the admin bypass and are only
// granted through the bootstrap seed, never through staff management.
func (s *Service) resolveAssignableRole(ctx context.Context, roleCode string) (*model.Role, error) {
	role, err := s.roleRepo.GetByCode(ctx, roleCode)
	if err != nil {
		return nil, apperrors.Validationf("role %q does not exist", roleCode)
	}
	if role.IsSystemRole {
		return nil, apperrors.Validationf("role %q cannot be assigned", roleCode)
	}
	if !role.IsActive {
		return nil, apperrors.Validationf("role %q is inactive", roleCode)
	}
	return role, nil
}

func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, apperrors.Validation("full name is required")
	}
	loginID := strings.ToLower(strings.TrimSpace(req.LoginID))
	if loginID == "" {
		return nil, apperrors.Validation("login id is required")
	}

	if existing, err := s.repo.GetByLoginID(ctx, loginID); err == nil && existing != nil {
		return nil, apperrors.Duplicate("login id already exists")
	}

	role, err := s.resolveAssignableRole(ctx, req.RoleCode)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password does not meet requirements")
	}

	user := &model.User{
		FullName:     req.FullName,
		LoginID:      loginID,
		PasswordHash: hash,
		RoleCode:     role.Code,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.User, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// UpdateUser applies a partial update. An empty password leaves the
// stored credential unchanged.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		if strings.TrimSpace(*req.FullName) == "" {
			return nil, apperrors.Validation("full name is required")
		}
		user.FullName = *req.FullName
	}
	if req.RoleCode != nil {
		role, err := s.resolveAssignableRole(ctx, *req.RoleCode)
		if err != nil {
			return nil, err
		}
		user.RoleCode = role.Code
	}
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, apperrors.Validation("password does not meet requirements")
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ToggleActive(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
