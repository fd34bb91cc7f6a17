package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/shopspring/decimal"
)

type Service interface {
	SendPaymentReceipt(ctx context.Context, to, patientName, invoiceNumber string, amount, outstanding decimal.Decimal) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendPaymentReceipt(ctx context.Context, to, patientName, invoiceNumber string, amount, outstanding decimal.Decimal) error {
	subject := fmt.Sprintf("Payment receipt for invoice %s", invoiceNumber)
	body := fmt.Sprintf(
		"Dear %s,\n\nWe have received your payment of %s against invoice %s.\nOutstanding balance: %s.\n\nThank you for visiting us.\n",
		patientName, amount.StringFixed(2), invoiceNumber, outstanding.StringFixed(2),
	)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
