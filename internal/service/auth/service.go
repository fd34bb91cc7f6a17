package auth

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
	"github.com/dentalbuddy/clinic-api/pkg/auth"
	"github.com/dentalbuddy/clinic-api/pkg/security"
)

var errInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	hasher     security.PasswordHasher
	jwtService auth.JWTService
}

func NewService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, hasher security.PasswordHasher, jwtService auth.JWTService) *Service {
	return &Service{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		hasher:     hasher,
		jwtService: jwtService,
	}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Login checks the credential and issues an access token. Failures are
// reported with a single message so callers cannot discover which
// login IDs exist.
func (s *Service) Login(ctx context.Context, loginID, password string) (*LoginResult, error) {
	loginID = strings.ToLower(strings.TrimSpace(loginID))

	user, err := s.userRepo.GetByLoginID(ctx, loginID)
	if err != nil {
		return nil, apperrors.Unauthorized(errInvalidCredentials)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized(errInvalidCredentials)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized(errInvalidCredentials)
	}

	role, err := s.roleRepo.GetByCode(ctx, user.RoleCode)
	if err != nil || !role.IsActive {
		return nil, apperrors.Unauthorized(errInvalidCredentials)
	}

	token, err := s.jwtService.GenerateAccessToken(user.ID, user.LoginID, user.RoleCode)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &LoginResult{Token: token, User: user}, nil
}
