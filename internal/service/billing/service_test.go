package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dentalbuddy/clinic-api/pkg/errors"

	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ── Stubs ────────────────────────────────────────────────────────────

// stubProcedureRepo is a mutex-guarded in-memory procedure store so
// the concurrent billing tests exercise real interleavings.
type stubProcedureRepo struct {
	mu         sync.Mutex
	procedures map[uuid.UUID]model.Procedure
}

func newStubProcedureRepo() *stubProcedureRepo {
	return &stubProcedureRepo{procedures: make(map[uuid.UUID]model.Procedure)}
}

func (r *stubProcedureRepo) Create(_ context.Context, p *model.Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.procedures[p.ID] = *p
	return nil
}

func (r *stubProcedureRepo) Get(_ context.Context, id uuid.UUID) (*model.Procedure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.procedures[id]
	if !ok {
		return nil, apperrors.NotFound("procedure", errors.New("not found"))
	}
	copied := p
	return &copied, nil
}

func (r *stubProcedureRepo) Update(_ context.Context, p *model.Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procedures[p.ID] = *p
	return nil
}

func (r *stubProcedureRepo) ListByPatient(_ context.Context, _ *model.ProcedureFilter) ([]*model.Procedure, error) {
	return nil, nil
}

var _ repository.ProcedureRepository = (*stubProcedureRepo)(nil)

// stubInvoiceRepo implements the transactional contracts in memory:
// Create claims procedures all-or-nothing and ApplyPayment performs a
// genuine compare-and-swap on the stored paid amount.
type stubInvoiceRepo struct {
	mu            sync.Mutex
	invoices      map[uuid.UUID]model.Invoice
	payments      map[uuid.UUID][]model.Payment
	costs         map[uuid.UUID]model.CostBreakdown
	events        []model.OutboxEvent
	procedureRepo *stubProcedureRepo
	seq           int64
	forceConflict bool
}

func newStubInvoiceRepo(procedureRepo *stubProcedureRepo) *stubInvoiceRepo {
	return &stubInvoiceRepo{
		invoices:      make(map[uuid.UUID]model.Invoice),
		payments:      make(map[uuid.UUID][]model.Payment),
		costs:         make(map[uuid.UUID]model.CostBreakdown),
		procedureRepo: procedureRepo,
	}
}

func (r *stubInvoiceRepo) Create(_ context.Context, invoice *model.Invoice, costs *model.CostBreakdown, procedureIDs []uuid.UUID, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procedureRepo.mu.Lock()
	defer r.procedureRepo.mu.Unlock()

	for _, id := range procedureIDs {
		p, ok := r.procedureRepo.procedures[id]
		if !ok || !p.IsCompleted || !p.IsBillable {
			return apperrors.ProcedureNotEligible("one or more procedures are not eligible for billing")
		}
	}
	for _, id := range procedureIDs {
		p := r.procedureRepo.procedures[id]
		p.IsBillable = false
		r.procedureRepo.procedures[id] = p
	}

	r.invoices[invoice.ID] = *invoice
	if costs != nil {
		r.costs[invoice.ID] = *costs
	}
	if event != nil {
		r.events = append(r.events, *event)
	}
	return nil
}

func (r *stubInvoiceRepo) Get(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.NotFound("invoice", errors.New("not found"))
	}
	copied := invoice
	return &copied, nil
}

func (r *stubInvoiceRepo) List(_ context.Context, _ *model.InvoiceFilter) ([]*model.Invoice, int, error) {
	return nil, 0, nil
}

func (r *stubInvoiceRepo) NextNumber(_ context.Context, year int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("INV-%d-%06d", year, r.seq), nil
}

func (r *stubInvoiceRepo) ApplyPayment(_ context.Context, payment *model.Payment, expectedPaid, newPaid decimal.Decimal, status model.InvoiceStatus, event *model.OutboxEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.forceConflict {
		return false, nil
	}

	invoice, ok := r.invoices[payment.InvoiceID]
	if !ok {
		return false, apperrors.NotFound("invoice", nil)
	}
	if !invoice.PaidAmount.Equal(expectedPaid) {
		return false, nil
	}

	invoice.PaidAmount = newPaid
	invoice.Status = status
	r.invoices[payment.InvoiceID] = invoice

	r.payments[payment.InvoiceID] = append(r.payments[payment.InvoiceID], *payment)
	if event != nil {
		r.events = append(r.events, *event)
	}
	return true, nil
}

func (r *stubInvoiceRepo) ListPayments(_ context.Context, invoiceID uuid.UUID) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for i := range r.payments[invoiceID] {
		p := r.payments[invoiceID][i]
		out = append(out, &p)
	}
	return out, nil
}

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// stubPatientRepo resolves every known patient id.
type stubPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *stubPatientRepo) Create(_ context.Context, _ *model.Patient) error { return nil }
func (r *stubPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", errors.New("not found"))
	}
	return p, nil
}
func (r *stubPatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }
func (r *stubPatientRepo) List(_ context.Context, _ *model.PatientFilter) ([]*model.Patient, int, error) {
	return nil, 0, nil
}
func (r *stubPatientRepo) NextCode(_ context.Context) (string, error) { return "PT-000001", nil }

var _ repository.PatientRepository = (*stubPatientRepo)(nil)

// ── Fixtures ─────────────────────────────────────────────────────────

type fixture struct {
	svc           *Service
	invoiceRepo   *stubInvoiceRepo
	procedureRepo *stubProcedureRepo
	patientID     uuid.UUID
}

func setup() *fixture {
	procedureRepo := newStubProcedureRepo()
	invoiceRepo := newStubInvoiceRepo(procedureRepo)
	patientID := uuid.New()
	patientRepo := &stubPatientRepo{patients: map[uuid.UUID]*model.Patient{
		patientID: {Base: model.Base{ID: patientID}, Code: "PT-000001", FullName: "Anita Rao", Phone: "9000000000", IsActive: true},
	}}
	return &fixture{
		svc:           NewService(invoiceRepo, procedureRepo, patientRepo),
		invoiceRepo:   invoiceRepo,
		procedureRepo: procedureRepo,
		patientID:     patientID,
	}
}

func (f *fixture) seedProcedure(name string, completed, billable bool) *model.Procedure {
	p := &model.Procedure{
		PatientID:   f.patientID,
		Name:        name,
		IsCompleted: completed,
		IsBillable:  billable,
	}
	_ = f.procedureRepo.Create(context.Background(), p)
	return p
}

// ── Totals ───────────────────────────────────────────────────────────

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name         string
		amounts      []string
		discount     string
		discountType model.DiscountType
		taxPercent   string
		wantDiscount string
		wantTax      string
		wantTotal    string
	}{
		{
			name:    "percentage discount with tax",
			amounts: []string{"600", "400"}, discount: "10", discountType: model.DiscountPercentage,
			taxPercent: "18", wantDiscount: "100", wantTax: "162", wantTotal: "1062",
		},
		{
			name:    "fixed discount with tax",
			amounts: []string{"1000"}, discount: "100", discountType: model.DiscountFixed,
			taxPercent: "18", wantDiscount: "100", wantTax: "162", wantTotal: "1062",
		},
		{
			name:    "no discount no tax",
			amounts: []string{"250.50", "249.50"}, discount: "0", discountType: model.DiscountFixed,
			taxPercent: "0", wantDiscount: "0", wantTax: "0", wantTotal: "500",
		},
		{
			name:    "rounding to two places",
			amounts: []string{"333.33"}, discount: "10", discountType: model.DiscountPercentage,
			taxPercent: "5", wantDiscount: "33.33", wantTax: "15", wantTotal: "315",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := make([]decimal.Decimal, len(tt.amounts))
			for i, a := range tt.amounts {
				amounts[i] = dec(a)
			}
			totals := ComputeTotals(amounts, dec(tt.discount), tt.discountType, dec(tt.taxPercent))
			assert.True(t, totals.DiscountAmount.Equal(dec(tt.wantDiscount)), "discount: got %s", totals.DiscountAmount)
			assert.True(t, totals.TaxAmount.Equal(dec(tt.wantTax)), "tax: got %s", totals.TaxAmount)
			assert.True(t, totals.Total.Equal(dec(tt.wantTotal)), "total: got %s", totals.Total)
		})
	}
}

// ── Invoice creation ─────────────────────────────────────────────────

func TestCreateInvoiceFromProcedures(t *testing.T) {
	f := setup()
	rct := f.seedProcedure("Root Canal Treatment", true, true)
	crown := f.seedProcedure("Crown", true, true)

	invoice, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items: []model.InvoiceItemRequest{
			{ProcedureID: &rct.ID, Amount: dec("600")},
			{ProcedureID: &crown.ID, Amount: dec("400")},
		},
		Discount:     dec("10"),
		DiscountType: model.DiscountPercentage,
		TaxPercent:   dec("18"),
	})
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{4}-\d{6}$`, invoice.Number)
	assert.True(t, invoice.Subtotal.Equal(dec("1000")))
	assert.True(t, invoice.Total.Equal(dec("1062")))
	assert.True(t, invoice.PaidAmount.IsZero())
	assert.Equal(t, model.InvoiceStatusUnpaid, invoice.Status)
	assert.Equal(t, "Root Canal Treatment", invoice.Items[0].Description)

	// claimed procedures are no longer billable
	got, err := f.procedureRepo.Get(context.Background(), rct.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBillable)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := setup()

	_, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     nil,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{Description: "Cleaning", Amount: dec("0")}},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{Description: "Cleaning", Amount: dec("500")}},
		Discount:  dec("-5"),
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	// discount swallowing the whole subtotal yields a non-positive total
	_, err = f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID:    f.patientID,
		Items:        []model.InvoiceItemRequest{{Description: "Cleaning", Amount: dec("500")}},
		Discount:     dec("500"),
		DiscountType: model.DiscountFixed,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	// unknown patient
	_, err = f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: uuid.New(),
		Items:     []model.InvoiceItemRequest{{Description: "Cleaning", Amount: dec("500")}},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateInvoiceDoubleBillingRejected(t *testing.T) {
	f := setup()
	proc := f.seedProcedure("Extraction", true, true)

	_, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{ProcedureID: &proc.ID, Amount: dec("300")}},
	})
	require.NoError(t, err)

	_, err = f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{ProcedureID: &proc.ID, Amount: dec("300")}},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrProcedureNotEligible))
	assert.Len(t, f.invoiceRepo.invoices, 1)
}

func TestCreateInvoiceIncompleteProcedureRejected(t *testing.T) {
	f := setup()
	proc := f.seedProcedure("Filling", false, false)

	_, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{ProcedureID: &proc.ID, Amount: dec("200")}},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrProcedureNotEligible))
}

func TestCreateInvoiceCostBreakdown(t *testing.T) {
	f := setup()

	invoice, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{Description: "Denture set", Amount: dec("5000")}},
		Costs: &model.CostBreakdownRequest{
			DoctorFee:    dec("1500"),
			LabCharge:    dec("1200"),
			OtherExpense: dec("300"),
		},
	})
	require.NoError(t, err)

	// cost fields never leak into the patient-facing total
	assert.True(t, invoice.Total.Equal(dec("5000")))

	costs := f.invoiceRepo.costs[invoice.ID]
	assert.True(t, costs.Profit.Equal(dec("2000")), "profit: got %s", costs.Profit)
}

func TestCreateInvoiceEventCarriesInvoiceID(t *testing.T) {
	f := setup()

	invoice, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{Description: "Cleaning", Amount: dec("500")}},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, invoice.ID)
	require.Len(t, f.invoiceRepo.events, 1)
	assert.Equal(t, model.EventInvoiceCreated, f.invoiceRepo.events[0].EventType)

	var published model.Invoice
	require.NoError(t, json.Unmarshal(f.invoiceRepo.events[0].Payload, &published))
	assert.Equal(t, invoice.ID, published.ID)
	require.Len(t, published.Items, 1)
	assert.Equal(t, invoice.ID, published.Items[0].InvoiceID)
}

// ── Payments ─────────────────────────────────────────────────────────

func (f *fixture) createInvoiceOf(t *testing.T, total string) *model.Invoice {
	t.Helper()
	invoice, err := f.svc.CreateInvoice(context.Background(), &model.CreateInvoiceRequest{
		PatientID: f.patientID,
		Items:     []model.InvoiceItemRequest{{Description: "Treatment charges", Amount: dec(total)}},
	})
	require.NoError(t, err)
	return invoice
}

func TestAddPaymentStatusTransitions(t *testing.T) {
	f := setup()
	invoice := f.createInvoiceOf(t, "1062")

	result, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("500"),
		Mode:      model.PaymentModeCash,
	})
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPartiallyPaid, result.Invoice.Status)
	assert.True(t, result.Invoice.PaidAmount.Equal(dec("500")))

	result, err = f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("562"),
		Mode:      model.PaymentModeUPI,
		Reference: "upi-tx-991",
	})
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, result.Invoice.Status)
	assert.True(t, result.Invoice.PaidAmount.Equal(dec("1062")))

	payments, err := f.svc.ListPayments(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestAddPaymentOverpaymentRejected(t *testing.T) {
	f := setup()
	invoice := f.createInvoiceOf(t, "1062")

	_, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("1062.01"),
		Mode:      model.PaymentModeCard,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrOverpaymentRejected))

	// pay in full, then any further payment fails
	_, err = f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("1062"),
		Mode:      model.PaymentModeCash,
	})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("0.01"),
		Mode:      model.PaymentModeCash,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrOverpaymentRejected))

	// failed attempts left no trace
	stored, err := f.svc.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(dec("1062")))
}

func TestAddPaymentEventCarriesPaymentID(t *testing.T) {
	f := setup()
	invoice := f.createInvoiceOf(t, "1062")

	result, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("500"),
		Mode:      model.PaymentModeCash,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, result.Payment.ID)
	require.Len(t, f.invoiceRepo.events, 2)
	assert.Equal(t, model.EventPaymentRecorded, f.invoiceRepo.events[1].EventType)

	var published model.Payment
	require.NoError(t, json.Unmarshal(f.invoiceRepo.events[1].Payload, &published))
	assert.Equal(t, result.Payment.ID, published.ID)
	assert.Equal(t, invoice.ID, published.InvoiceID)
}

func TestAddPaymentInvalidAmount(t *testing.T) {
	f := setup()
	invoice := f.createInvoiceOf(t, "100")

	for _, amount := range []string{"0", "-10"} {
		_, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
			InvoiceID: invoice.ID,
			Amount:    dec(amount),
			Mode:      model.PaymentModeCash,
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrValidation), "amount %s", amount)
	}
}

func TestAddPaymentInvoiceNotFound(t *testing.T) {
	f := setup()

	_, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: uuid.New(),
		Amount:    dec("100"),
		Mode:      model.PaymentModeCash,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAddPaymentConcurrentRace(t *testing.T) {
	f := setup()
	invoice := f.createInvoiceOf(t, "1062")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
				InvoiceID: invoice.ID,
				Amount:    dec("1062"),
				Mode:      model.PaymentModeCash,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	var successes, rejections int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.Is(err, apperrors.ErrOverpaymentRejected), apperrors.Is(err, apperrors.ErrConcurrentModification):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)

	stored, err := f.svc.GetInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(stored.Total), "paid %s total %s", stored.PaidAmount, stored.Total)
	assert.Equal(t, model.InvoiceStatusPaid, stored.Status)
}

func TestAddPaymentRetriesExhausted(t *testing.T) {
	f := setup()
	invoice := f.createInvoiceOf(t, "100")

	f.invoiceRepo.forceConflict = true
	_, err := f.svc.AddPayment(context.Background(), &model.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    dec("100"),
		Mode:      model.PaymentModeCash,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConcurrentModification))
}

// ── Status derivation ────────────────────────────────────────────────

func TestDeriveInvoiceStatus(t *testing.T) {
	total := dec("1062")

	assert.Equal(t, model.InvoiceStatusUnpaid, model.DeriveInvoiceStatus(dec("0"), total))
	assert.Equal(t, model.InvoiceStatusPartiallyPaid, model.DeriveInvoiceStatus(dec("0.01"), total))
	assert.Equal(t, model.InvoiceStatusPartiallyPaid, model.DeriveInvoiceStatus(dec("1061.99"), total))
	assert.Equal(t, model.InvoiceStatusPaid, model.DeriveInvoiceStatus(dec("1062"), total))
	assert.Equal(t, model.InvoiceStatusPaid, model.DeriveInvoiceStatus(dec("2000"), total))
}
