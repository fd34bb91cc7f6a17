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

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `id, code, full_name, gender, date_of_birth, phone, email, address, occupation, emergency_name, emergency_phone, is_active, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Code,
		patient.FullName,
		patient.Gender,
		patient.DateOfBirth,
		patient.Phone,
		patient.Email,
		patient.Address,
		patient.Occupation,
		patient.EmergencyName,
		patient.EmergencyPhone,
		patient.IsActive,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET full_name = $1, gender = $2, date_of_birth = $3, phone = $4, email = $5,
		    address = $6, occupation = $7, emergency_name = $8, emergency_phone = $9,
		    is_active = $10, updated_at = $11
		WHERE id = $12
	`
	patient.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		patient.FullName,
		patient.Gender,
		patient.DateOfBirth,
		patient.Phone,
		patient.Email,
		patient.Address,
		patient.Occupation,
		patient.EmergencyName,
		patient.EmergencyPhone,
		patient.IsActive,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, filter *model.PatientFilter) ([]*model.Patient, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filter.Status == "active" {
		where += ` AND is_active = true`
	} else if filter.Status == "inactive" {
		where += ` AND is_active = false`
	}
	if filter.Search != "" {
		where += fmt.Sprintf(` AND (full_name ILIKE $%d OR phone ILIKE $%d OR code ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM patients`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	query := `SELECT ` + patientColumns + ` FROM patients` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, filter.Limit, filter.Offset())

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, total, nil
}

// NextCode draws the next value from the patient code sequence, which
// makes codes immutable and gap-tolerant under concurrent registration.
func (r *patientRepository) NextCode(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('patient_code_seq')`); err != nil {
		return "", fmt.Errorf("failed to get next patient code: %w", err)
	}
	return fmt.Sprintf("PT-%06d", seq), nil
}
