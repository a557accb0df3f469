package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/logger"
	"rentify-backend/internal/repository"
)

// paymentIDNamespace makes payment IDs deterministic in the request ID,
// so a retried append lands on the same primary key instead of a second
// row.
var paymentIDNamespace = uuid.MustParse("7a8f1c52-0d3e-4b6a-9c17-5e2f8d4a1b90")

type invoiceService struct {
	invoiceRepo     repository.InvoiceRepository
	reservationRepo repository.ReservationRepository
	customerRepo    repository.CustomerRepository
	noteRepo        repository.NotificationRepository
	emailSvc        EmailService
	currency        string
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	reservationRepo repository.ReservationRepository,
	customerRepo repository.CustomerRepository,
	noteRepo repository.NotificationRepository,
	emailSvc EmailService,
	currency string,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:     invoiceRepo,
		reservationRepo: reservationRepo,
		customerRepo:    customerRepo,
		noteRepo:        noteRepo,
		emailSvc:        emailSvc,
		currency:        currency,
	}
}

func (s *invoiceService) Generate(ctx context.Context, actor domain.Actor, reservationID uuid.UUID) (*domain.Invoice, error) {
	rs, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if rs.Status == domain.ReservationStatusCancelled {
		return nil, &domain.ValidationError{Field: "reservation", Reason: "cannot invoice a cancelled reservation"}
	}

	// Amount is a snapshot of the reservation's final price; later price
	// edits do not reach back into an issued invoice.
	inv := &domain.Invoice{
		ID:            uuid.New(),
		ReservationID: rs.ID,
		Amount:        rs.FinalPrice,
		Currency:      s.currency,
		IssuedAt:      time.Now().UTC(),
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.notify(ctx, domain.NotificationInvoiceGenerated, rs.ID, "Invoice Generated",
		fmt.Sprintf("Invoice for %s %s issued for reservation %s", inv.Amount, s.currency, rs.ID),
		map[string]string{"invoice_id": inv.ID.String()})
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByReservationID(ctx, reservationID)
}

func (s *invoiceService) AddPayment(ctx context.Context, actor domain.Actor, invoiceID uuid.UUID, in AddPaymentInput) (*PaymentResult, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	rs, err := s.reservationRepo.GetByID(ctx, inv.ReservationID)
	if err != nil {
		return nil, err
	}
	if rs.Status == domain.ReservationStatusCancelled {
		return nil, &domain.InvoiceClosedError{InvoiceID: inv.ID, ReservationStatus: rs.Status}
	}
	if err := domain.ValidatePayment(in.Amount, in.Method, in.ReferenceNumber); err != nil {
		return nil, err
	}

	p := &domain.Payment{
		ID:              uuid.New(),
		InvoiceID:       inv.ID,
		Amount:          in.Amount,
		Method:          in.Method,
		ReferenceNumber: in.ReferenceNumber,
		PaymentDate:     in.PaymentDate,
		Notes:           in.Notes,
		ReceivedBy:      actor.UserID,
		CreatedAt:       time.Now().UTC(),
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = p.CreatedAt
	}
	if in.RequestID != "" {
		p.ID = uuid.NewSHA1(paymentIDNamespace, []byte(in.RequestID))
		if existing, err := s.invoiceRepo.GetPayment(ctx, inv.ID, p.ID); err == nil {
			logger.InfoContext(ctx, "repeated payment request, returning recorded payment",
				"invoice_id", inv.ID, "request_id", in.RequestID)
			return s.result(ctx, inv.ID, existing)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.invoiceRepo.AppendPayment(ctx, p); err != nil {
		return nil, err
	}

	res, err := s.result(ctx, inv.ID, p)
	if err != nil {
		return nil, err
	}
	if res.OverpaymentWarning {
		logger.WarnContext(ctx, "invoice overpaid",
			"invoice_id", inv.ID, "outstanding", res.Invoice.Outstanding().String())
	}

	s.notify(ctx, domain.NotificationPaymentReceived, inv.ReservationID, "Payment Received",
		fmt.Sprintf("Payment of %s %s received against invoice %s", p.Amount, s.currency, inv.ID),
		map[string]string{"invoice_id": inv.ID.String(), "payment_id": p.ID.String()})
	s.emailCustomers(ctx, rs, func(c *domain.Customer) error {
		return s.emailSvc.SendPaymentReceipt(ctx, c.Email, c.FullName, p.Amount, s.currency, res.Invoice.Outstanding())
	})
	return res, nil
}

func (s *invoiceService) RefundPayment(ctx context.Context, actor domain.Actor, invoiceID, paymentID uuid.UUID, requestID, reason string) (*PaymentResult, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	orig, err := s.invoiceRepo.GetPayment(ctx, invoiceID, paymentID)
	if err != nil {
		return nil, err
	}
	if orig.IsReversal() {
		return nil, &domain.ValidationError{Field: "paymentId", Reason: "cannot refund a reversal entry"}
	}

	// A refund is a new negative row; the original payment is never
	// touched. This keeps the ledger append-only and the running total
	// recomputable at any point in history.
	rev := &domain.Payment{
		ID:              uuid.New(),
		InvoiceID:       inv.ID,
		Amount:          orig.Amount.Neg(),
		Method:          orig.Method,
		ReferenceNumber: orig.ReferenceNumber,
		PaymentDate:     time.Now().UTC(),
		Notes:           fmt.Sprintf("refund of payment %s: %s", orig.ID, reason),
		ReceivedBy:      actor.UserID,
		CreatedAt:       time.Now().UTC(),
	}
	if requestID != "" {
		rev.ID = uuid.NewSHA1(paymentIDNamespace, []byte(requestID))
		if existing, err := s.invoiceRepo.GetPayment(ctx, inv.ID, rev.ID); err == nil {
			return s.result(ctx, inv.ID, existing)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.invoiceRepo.AppendPayment(ctx, rev); err != nil {
		return nil, err
	}
	return s.result(ctx, inv.ID, rev)
}

func (s *invoiceService) SendUnpaidReminders(ctx context.Context, issuedBefore time.Time) (int, error) {
	unpaid, err := s.invoiceRepo.ListUnpaidSince(ctx, issuedBefore)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range unpaid {
		inv := &unpaid[i]
		rs, err := s.reservationRepo.GetByID(ctx, inv.ReservationID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load reservation for unpaid reminder",
				"invoice_id", inv.ID, "error", err)
			continue
		}
		if rs.Status == domain.ReservationStatusCancelled {
			continue
		}
		s.notify(ctx, domain.NotificationInvoiceUnpaid, inv.ReservationID, "Invoice Unpaid",
			fmt.Sprintf("Invoice %s still has %s %s outstanding", inv.ID, inv.Outstanding(), s.currency),
			map[string]string{"invoice_id": inv.ID.String()})
		s.emailCustomers(ctx, rs, func(c *domain.Customer) error {
			return s.emailSvc.SendUnpaidInvoiceReminder(ctx, c.Email, c.FullName, inv.ID, inv.Outstanding(), s.currency, inv.IssuedAt)
		})
		sent++
	}
	return sent, nil
}

// result reloads the invoice so the returned totals include the row just
// appended, then derives the overpayment flag.
func (s *invoiceService) result(ctx context.Context, invoiceID uuid.UUID, p *domain.Payment) (*PaymentResult, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{
		Invoice:            inv,
		Payment:            p,
		OverpaymentWarning: inv.Outstanding().IsNegative(),
	}, nil
}

func (s *invoiceService) emailCustomers(ctx context.Context, rs *domain.Reservation, send func(*domain.Customer) error) {
	for _, cid := range rs.CustomerIDs {
		c, err := s.customerRepo.GetByID(ctx, cid)
		if err != nil || c.Email == "" {
			continue
		}
		_ = send(c)
	}
}

func (s *invoiceService) notify(ctx context.Context, typ domain.NotificationType, reservationID uuid.UUID, title, message string, attrs map[string]string) {
	n := &domain.Notification{
		ID:            uuid.New(),
		Type:          typ,
		ReservationID: reservationID,
		Title:         title,
		Message:       message,
		Attributes:    attrs,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		logger.ErrorContext(ctx, "failed to record notification",
			"reservation_id", reservationID, "type", typ, "error", err)
	}
}
