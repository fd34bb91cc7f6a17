package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentalbuddy/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	RoleRepository interface {
		Create(ctx context.Context, role *model.Role) error
		Get(ctx context.Context, id uuid.UUID) (*model.Role, error)
		GetByCode(ctx context.Context, code string) (*model.Role, error)
		Update(ctx context.Context, role *model.Role) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.RoleFilter) ([]*model.Role, error)
		CountActiveUsers(ctx context.Context, roleCode string) (int, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByLoginID(ctx context.Context, loginID string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, int, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, filter *model.PatientFilter) ([]*model.Patient, int, error)
		NextCode(ctx context.Context) (string, error)
	}

	ProcedureRepository interface {
		Create(ctx context.Context, procedure *model.Procedure) error
		Get(ctx context.Context, id uuid.UUID) (*model.Procedure, error)
		Update(ctx context.Context, procedure *model.Procedure) error
		ListByPatient(ctx context.Context, filter *model.ProcedureFilter) ([]*model.Procedure, error)
	}

	// InvoiceRepository owns the financially sensitive writes. Create
	// claims the referenced procedures and persists invoice, items,
	// cost breakdown and outbox event in one transaction; ApplyPayment
	// is a compare-and-swap on paid_amount with the payment insert and
	// outbox event in the same transaction.
	InvoiceRepository interface {
		Create(ctx context.Context, invoice *model.Invoice, costs *model.CostBreakdown, procedureIDs []uuid.UUID, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
		List(ctx context.Context, filter *model.InvoiceFilter) ([]*model.Invoice, int, error)
		NextNumber(ctx context.Context, year int) (string, error)
		ApplyPayment(ctx context.Context, payment *model.Payment, expectedPaid, newPaid decimal.Decimal, status model.InvoiceStatus, event *model.OutboxEvent) (bool, error)
		ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*model.Payment, error)
	}

	ReportRepository interface {
		DailyCollection(ctx context.Context, day time.Time) ([]*model.DailyCollectionRow, error)
		MonthlyRevenue(ctx context.Context, year int) ([]*model.MonthlyRevenueRow, error)
		ProcedureStats(ctx context.Context, from, to time.Time) ([]*model.ProcedureStatRow, error)
		NewPatients(ctx context.Context, year int) ([]*model.NewPatientRow, error)
		OutstandingInvoices(ctx context.Context) ([]*model.OutstandingInvoiceRow, error)
	}

	// OutboxRepository drains events written by the domain
	// transactions. ClaimPending holds the batch row locks and the
	// status updates in one transaction so worker replicas never
	// publish the same event twice.
	OutboxRepository interface {
		ClaimPending(ctx context.Context, limit int, retryDelay time.Duration, handle func(event *model.OutboxEvent) error) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
