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

type procedureRepository struct {
	BaseRepository
}

func NewProcedureRepository(base BaseRepository) repository.ProcedureRepository {
	return &procedureRepository{base}
}

func (r *procedureRepository) Create(ctx context.Context, procedure *model.Procedure) error {
	query := `
		INSERT INTO procedures (id, patient_id, name, tooth_number, is_completed, is_billable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	procedure.ID = uuid.New()
	procedure.CreatedAt = time.Now()
	procedure.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		procedure.ID,
		procedure.PatientID,
		procedure.Name,
		procedure.ToothNumber,
		procedure.IsCompleted,
		procedure.IsBillable,
		procedure.CreatedAt,
		procedure.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create procedure: %w", err)
	}
	return nil
}

func (r *procedureRepository) Get(ctx context.Context, id uuid.UUID) (*model.Procedure, error) {
	query := `
		SELECT id, patient_id, name, tooth_number, is_completed, is_billable, created_at, updated_at
		FROM procedures
		WHERE id = $1
	`
	var procedure model.Procedure
	err := r.db.GetContext(ctx, &procedure, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("procedure", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure: %w", err)
	}
	return &procedure, nil
}

func (r *procedureRepository) Update(ctx context.Context, procedure *model.Procedure) error {
	query := `
		UPDATE procedures
		SET name = $1, tooth_number = $2, is_completed = $3, is_billable = $4, updated_at = $5
		WHERE id = $6
	`
	procedure.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		procedure.Name,
		procedure.ToothNumber,
		procedure.IsCompleted,
		procedure.IsBillable,
		procedure.UpdatedAt,
		procedure.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update procedure: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("procedure", nil)
	}
	return nil
}

func (r *procedureRepository) ListByPatient(ctx context.Context, filter *model.ProcedureFilter) ([]*model.Procedure, error) {
	query := `
		SELECT id, patient_id, name, tooth_number, is_completed, is_billable, created_at, updated_at
		FROM procedures
		WHERE patient_id = $1
	`
	if filter.BillableOnly {
		query += ` AND is_completed = true AND is_billable = true`
	}
	query += ` ORDER BY created_at DESC`

	var procedures []*model.Procedure
	if err := r.db.SelectContext(ctx, &procedures, query, filter.PatientID); err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	return procedures, nil
}
