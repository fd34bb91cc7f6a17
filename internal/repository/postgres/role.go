package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

type roleRepository struct {
	BaseRepository
}

func NewRoleRepository(base BaseRepository) repository.RoleRepository {
	return &roleRepository{base}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	query := `
		INSERT INTO roles (id, code, display_name, description, icon, is_professional, is_system_role, is_active, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	role.ID = uuid.New()
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		role.ID,
		role.Code,
		role.DisplayName,
		role.Description,
		role.Icon,
		role.IsProfessional,
		role.IsSystemRole,
		role.IsActive,
		role.Permissions,
		role.CreatedAt,
		role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *roleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	query := `
		SELECT id, code, display_name, description, icon, is_professional, is_system_role, is_active, permissions, created_at, updated_at
		FROM roles
		WHERE id = $1
	`
	var role model.Role
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("role", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (r *roleRepository) GetByCode(ctx context.Context, code string) (*model.Role, error) {
	query := `
		SELECT id, code, display_name, description, icon, is_professional, is_system_role, is_active, permissions, created_at, updated_at
		FROM roles
		WHERE upper(code) = upper($1)
	`
	var role model.Role
	err := r.db.GetContext(ctx, &role, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("role", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role by code: %w", err)
	}
	return &role, nil
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	query := `
		UPDATE roles
		SET display_name = $1, description = $2, icon = $3, is_professional = $4, is_active = $5, permissions = $6, updated_at = $7
		WHERE id = $8
	`
	role.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		role.DisplayName,
		role.Description,
		role.Icon,
		role.IsProfessional,
		role.IsActive,
		role.Permissions,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("role", nil)
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("role", nil)
	}
	return nil
}

func (r *roleRepository) List(ctx context.Context, filter *model.RoleFilter) ([]*model.Role, error) {
	query := `
		SELECT id, code, display_name, description, icon, is_professional, is_system_role, is_active, permissions, created_at, updated_at
		FROM roles
	`
	if filter != nil && filter.ActiveOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at ASC`

	var roles []*model.Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) CountActiveUsers(ctx context.Context, roleCode string) (int, error) {
	var count int
	query := `SELECT count(*) FROM users WHERE upper(role_code) = upper($1) AND is_active = true`
	if err := r.db.GetContext(ctx, &count, query, roleCode); err != nil {
		return 0, fmt.Errorf("failed to count users for role: %w", err)
	}
	return count, nil
}
