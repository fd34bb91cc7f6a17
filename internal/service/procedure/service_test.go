package procedure

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
)

type stubProcedureRepo struct {
	procedures map[uuid.UUID]*model.Procedure
	updates    int
}

func newStubProcedureRepo() *stubProcedureRepo {
	return &stubProcedureRepo{procedures: make(map[uuid.UUID]*model.Procedure)}
}

func (r *stubProcedureRepo) Create(_ context.Context, p *model.Procedure) error {
	p.ID = uuid.New()
	r.procedures[p.ID] = p
	return nil
}

func (r *stubProcedureRepo) Get(_ context.Context, id uuid.UUID) (*model.Procedure, error) {
	p, ok := r.procedures[id]
	if !ok {
		return nil, apperrors.NotFound("procedure", errors.New("not found"))
	}
	return p, nil
}

func (r *stubProcedureRepo) Update(_ context.Context, p *model.Procedure) error {
	r.updates++
	r.procedures[p.ID] = p
	return nil
}

func (r *stubProcedureRepo) ListByPatient(_ context.Context, _ *model.ProcedureFilter) ([]*model.Procedure, error) {
	return nil, nil
}

type stubPatientRepo struct {
	known map[uuid.UUID]bool
}

func (r *stubPatientRepo) Create(_ context.Context, _ *model.Patient) error { return nil }
func (r *stubPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if !r.known[id] {
		return nil, apperrors.NotFound("patient", errors.New("not found"))
	}
	return &model.Patient{Base: model.Base{ID: id}}, nil
}
func (r *stubPatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }
func (r *stubPatientRepo) List(_ context.Context, _ *model.PatientFilter) ([]*model.Patient, int, error) {
	return nil, 0, nil
}
func (r *stubPatientRepo) NextCode(_ context.Context) (string, error) { return "PT-000001", nil }

func TestCreateProcedureStartsUnbillable(t *testing.T) {
	patientID := uuid.New()
	svc := NewService(newStubProcedureRepo(), &stubPatientRepo{known: map[uuid.UUID]bool{patientID: true}})

	tooth := 36
	created, err := svc.CreateProcedure(context.Background(), patientID, &model.CreateProcedureRequest{
		Name:        "Root Canal Treatment",
		ToothNumber: &tooth,
	})
	require.NoError(t, err)

	assert.False(t, created.IsCompleted)
	assert.False(t, created.IsBillable)
}

func TestCreateProcedureUnknownPatient(t *testing.T) {
	svc := NewService(newStubProcedureRepo(), &stubPatientRepo{known: map[uuid.UUID]bool{}})

	_, err := svc.CreateProcedure(context.Background(), uuid.New(), &model.CreateProcedureRequest{
		Name: "Filling",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCompleteProcedureMakesBillable(t *testing.T) {
	patientID := uuid.New()
	repo := newStubProcedureRepo()
	svc := NewService(repo, &stubPatientRepo{known: map[uuid.UUID]bool{patientID: true}})

	created, err := svc.CreateProcedure(context.Background(), patientID, &model.CreateProcedureRequest{Name: "Extraction"})
	require.NoError(t, err)

	completed, err := svc.CompleteProcedure(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, completed.IsCompleted)
	assert.True(t, completed.IsBillable)

	// completing again changes nothing and skips the write
	updatesBefore := repo.updates
	again, err := svc.CompleteProcedure(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, again.IsCompleted)
	assert.Equal(t, updatesBefore, repo.updates)
}
