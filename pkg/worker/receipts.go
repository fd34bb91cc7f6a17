package worker

import (
	"context"
	"encoding/json"

	"github.com/dentalbuddy/clinic-api/internal/email"
	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
	"github.com/dentalbuddy/clinic-api/pkg/logger"
	"github.com/dentalbuddy/clinic-api/pkg/messaging"
)

// ReceiptListener mails a receipt to the patient for every recorded
// payment. Patients without an email address are skipped.
type ReceiptListener struct {
	broker      messaging.Broker
	emailSvc    email.Service
	invoiceRepo repository.InvoiceRepository
	patientRepo repository.PatientRepository
	logger      *logger.Logger
}

func NewReceiptListener(
	broker messaging.Broker,
	emailSvc email.Service,
	invoiceRepo repository.InvoiceRepository,
	patientRepo repository.PatientRepository,
	logger *logger.Logger,
) *ReceiptListener {
	return &ReceiptListener{
		broker:      broker,
		emailSvc:    emailSvc,
		invoiceRepo: invoiceRepo,
		patientRepo: patientRepo,
		logger:      logger,
	}
}

func (l *ReceiptListener) Start(ctx context.Context) error {
	messages, err := l.broker.Subscribe(ctx, model.EventPaymentRecorded)
	if err != nil {
		return err
	}

	l.logger.Info("Starting receipt listener")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Shutting down receipt listener")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			l.handle(ctx, msg)
		}
	}
}

func (l *ReceiptListener) handle(ctx context.Context, raw []byte) {
	var msg messaging.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		l.logger.Error(err, "Invalid event envelope")
		return
	}

	var payment model.Payment
	if err := json.Unmarshal(msg.Payload, &payment); err != nil {
		l.logger.Error(err, "Invalid payment event payload")
		return
	}

	invoice, err := l.invoiceRepo.Get(ctx, payment.InvoiceID)
	if err != nil {
		l.logger.Error(err, "Failed to load invoice for receipt", "invoice_id", payment.InvoiceID.String())
		return
	}

	patient, err := l.patientRepo.Get(ctx, invoice.PatientID)
	if err != nil {
		l.logger.Error(err, "Failed to load patient for receipt", "patient_id", invoice.PatientID.String())
		return
	}
	if patient.Email == "" {
		return
	}

	if err := l.emailSvc.SendPaymentReceipt(ctx, patient.Email, patient.FullName, invoice.Number, payment.Amount, invoice.Outstanding()); err != nil {
		l.logger.Error(err, "Failed to send payment receipt", "invoice", invoice.Number)
		return
	}
	l.logger.Info("Payment receipt sent", "invoice", invoice.Number)
}
