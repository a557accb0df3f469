package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/logger"
)

type emailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) send(ctx context.Context, to, toName, subject, plainText string) error {
	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil)
	return nil
}

func (s *emailService) SendReservationCompleted(ctx context.Context, email, name string, reservationID uuid.UUID, finalPrice domain.Money, currency string) error {
	subject := "Your rental is complete"
	body := fmt.Sprintf("Hello %s,\n\nYour rental (reservation %s) is complete. The final amount is %s %s.\n\nThank you for renting with us.",
		name, reservationID, finalPrice, currency)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendReservationCancelled(ctx context.Context, email, name, reason string) error {
	subject := "Your reservation was cancelled"
	body := fmt.Sprintf("Hello %s,\n\nYour reservation has been cancelled.", name)
	if reason != "" {
		body += fmt.Sprintf("\n\nReason: %s", reason)
	}
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendReservationOverdue(ctx context.Context, email, name string, reservationID uuid.UUID, endDate time.Time) error {
	subject := "Your rental is overdue"
	body := fmt.Sprintf("Hello %s,\n\nYour rental (reservation %s) was due back on %s. Please return the vehicle or contact the agency.",
		name, reservationID, endDate.Format("2006-01-02"))
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendInvoiceIssued(ctx context.Context, email, name string, invoiceID uuid.UUID, amount domain.Money, currency string) error {
	subject := "Your invoice is ready"
	body := fmt.Sprintf("Hello %s,\n\nInvoice %s has been issued for %s %s.",
		name, invoiceID, amount, currency)
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendPaymentReceipt(ctx context.Context, email, name string, amount domain.Money, currency string, outstanding domain.Money) error {
	subject := "Payment received"
	body := fmt.Sprintf("Hello %s,\n\nWe received your payment of %s %s.", name, amount, currency)
	if outstanding.IsPositive() {
		body += fmt.Sprintf("\n\nRemaining balance: %s %s.", outstanding, currency)
	} else {
		body += "\n\nYour invoice is fully paid."
	}
	return s.send(ctx, email, name, subject, body)
}

func (s *emailService) SendUnpaidInvoiceReminder(ctx context.Context, email, name string, invoiceID uuid.UUID, outstanding domain.Money, currency string, issuedAt time.Time) error {
	subject := "Payment reminder"
	body := fmt.Sprintf("Hello %s,\n\nInvoice %s issued on %s still has %s %s outstanding. Please arrange payment.",
		name, invoiceID, issuedAt.Format("2006-01-02"), outstanding, currency)
	return s.send(ctx, email, name, subject, body)
}

// noopEmailService is wired when email sending is disabled in config.
type noopEmailService struct{}

func NewNoopEmailService() EmailService {
	return noopEmailService{}
}

func (noopEmailService) SendReservationCompleted(ctx context.Context, email, name string, reservationID uuid.UUID, finalPrice domain.Money, currency string) error {
	return nil
}

func (noopEmailService) SendReservationCancelled(ctx context.Context, email, name, reason string) error {
	return nil
}

func (noopEmailService) SendReservationOverdue(ctx context.Context, email, name string, reservationID uuid.UUID, endDate time.Time) error {
	return nil
}

func (noopEmailService) SendInvoiceIssued(ctx context.Context, email, name string, invoiceID uuid.UUID, amount domain.Money, currency string) error {
	return nil
}

func (noopEmailService) SendPaymentReceipt(ctx context.Context, email, name string, amount domain.Money, currency string, outstanding domain.Money) error {
	return nil
}

func (noopEmailService) SendUnpaidInvoiceReminder(ctx context.Context, email, name string, invoiceID uuid.UUID, outstanding domain.Money, currency string, issuedAt time.Time) error {
	return nil
}
