package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	pkgauth "github.com/dentalbuddy/clinic-api/pkg/auth"
)

type stubUserRepo struct {
	users map[string]*model.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (r *stubUserRepo) Get(_ context.Context, _ uuid.UUID) (*model.User, error) {
	return nil, apperrors.NotFound("user", errors.New("not found"))
}
func (r *stubUserRepo) GetByLoginID(_ context.Context, loginID string) (*model.User, error) {
	u, ok := r.users[loginID]
	if !ok {
		return nil, apperrors.NotFound("user", errors.New("not found"))
	}
	return u, nil
}
func (r *stubUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
func (r *stubUserRepo) Delete(_ context.Context, _ uuid.UUID) error   { return nil }
func (r *stubUserRepo) List(_ context.Context, _ *model.UserFilter) ([]*model.User, int, error) {
	return nil, 0, nil
}

type stubRoleRepo struct {
	roles map[string]*model.Role
}

func (r *stubRoleRepo) Create(_ context.Context, _ *model.Role) error { return nil }
func (r *stubRoleRepo) Get(_ context.Context, _ uuid.UUID) (*model.Role, error) {
	return nil, apperrors.NotFound("role", errors.New("not found"))
}
func (r *stubRoleRepo) GetByCode(_ context.Context, code string) (*model.Role, error) {
	role, ok := r.roles[code]
	if !ok {
		return nil, apperrors.NotFound("role", errors.New("not found"))
	}
	return role, nil
}
func (r *stubRoleRepo) Update(_ context.Context, _ *model.Role) error             { return nil }
func (r *stubRoleRepo) Delete(_ context.Context, _ uuid.UUID) error               { return nil }
func (r *stubRoleRepo) List(_ context.Context, _ *model.RoleFilter) ([]*model.Role, error) {
	return nil, nil
}
func (r *stubRoleRepo) CountActiveUsers(_ context.Context, _ string) (int, error) { return 0, nil }

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Compare(hashed, password string) error {
	if hashed != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func setup(userActive, roleActive bool) *Service {
	users := &stubUserRepo{users: map[string]*model.User{
		"dr.rao": {
			Base:         model.Base{ID: uuid.New()},
			LoginID:      "dr.rao",
			PasswordHash: "hashed:s3cret-pass",
			RoleCode:     "DOCTOR",
			IsActive:     userActive,
		},
	}}
	roles := &stubRoleRepo{roles: map[string]*model.Role{
		"DOCTOR": {Code: "DOCTOR", IsActive: roleActive},
	}}
	jwtSvc := pkgauth.NewJWTService("test-secret", time.Hour, "test")
	return NewService(users, roles, fakeHasher{}, jwtSvc)
}

func TestLoginSuccess(t *testing.T) {
	svc := setup(true, true)

	result, err := svc.Login(context.Background(), "Dr.Rao ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "dr.rao", result.User.LoginID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := setup(true, true)

	_, err := svc.Login(context.Background(), "dr.rao", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLoginUnknownUser(t *testing.T) {
	svc := setup(true, true)

	_, err := svc.Login(context.Background(), "nobody", "s3cret-pass")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLoginInactiveUser(t *testing.T) {
	svc := setup(false, true)

	_, err := svc.Login(context.Background(), "dr.rao", "s3cret-pass")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLoginInactiveRole(t *testing.T) {
	svc := setup(true, false)

	_, err := svc.Login(context.Background(), "dr.rao", "s3cret-pass")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}
