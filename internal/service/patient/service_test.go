package patient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
)

type stubPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
	seq      int
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *stubPatientRepo) Create(_ context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", errors.New("not found"))
	}
	return p, nil
}

func (r *stubPatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) List(_ context.Context, _ *model.PatientFilter) ([]*model.Patient, int, error) {
	return nil, 0, nil
}

func (r *stubPatientRepo) NextCode(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("PT-%06d", r.seq), nil
}

func strPtr(s string) *string { return &s }

func TestRegisterPatientAssignsSequentialCodes(t *testing.T) {
	svc := NewService(newStubPatientRepo())

	first, err := svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{
		FullName: "Anita Rao", Phone: "9000000001",
	})
	require.NoError(t, err)
	second, err := svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{
		FullName: "Vikram Shah", Phone: "9000000002",
	})
	require.NoError(t, err)

	assert.Equal(t, "PT-000001", first.Code)
	assert.Equal(t, "PT-000002", second.Code)
	assert.True(t, first.IsActive)
}

func TestRegisterPatientValidation(t *testing.T) {
	svc := NewService(newStubPatientRepo())

	_, err := svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{Phone: "9000000001"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{FullName: "Anita Rao"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestUpdatePatientKeepsCode(t *testing.T) {
	svc := NewService(newStubPatientRepo())

	created, err := svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{
		FullName: "Anita Rao", Phone: "9000000001",
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePatient(context.Background(), created.ID, &model.UpdatePatientRequest{
		FullName: strPtr("Anita R. Rao"),
		Email:    strPtr("anita@example.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, "PT-000001", updated.Code)
	assert.Equal(t, "Anita R. Rao", updated.FullName)
	assert.Equal(t, "anita@example.com", updated.Email)
	assert.Equal(t, "9000000001", updated.Phone)
}

func TestUpdatePatientRejectsBlankName(t *testing.T) {
	svc := NewService(newStubPatientRepo())

	created, err := svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{
		FullName: "Anita Rao", Phone: "9000000001",
	})
	require.NoError(t, err)

	_, err = svc.UpdatePatient(context.Background(), created.ID, &model.UpdatePatientRequest{
		FullName: strPtr("  "),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestToggleActive(t *testing.T) {
	svc := NewService(newStubPatientRepo())

	created, err := svc.RegisterPatient(context.Background(), &model.CreatePatientRequest{
		FullName: "Anita Rao", Phone: "9000000001",
	})
	require.NoError(t, err)

	blocked, err := svc.ToggleActive(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, blocked.IsActive)

	restored, err := svc.ToggleActive(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
}
