package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
)

// CreateReservationInput carries everything needed to book a car. When
// AgreedPrice is set the manual-override pricing path is taken and the
// per-day rate is back-derived for display; otherwise the car's daily
// rate drives the computation.
type CreateReservationInput struct {
	RequestID            string
	CarID                uuid.UUID
	CustomerIDs          []uuid.UUID
	StartDate            time.Time
	EndDate              time.Time
	PickupLocation       string
	DropoffLocation      string
	AgreedPrice          *domain.Money
	AdditionalFees       domain.Money
	AdditionalFeesReason string
	Discount             domain.Money
	DiscountReason       string
	DepositAmount        domain.Money
}

// Mutating inputs carry the idempotency key and the version the client
// loaded. ExpectedVersion zero means "no check requested"; the save is
// still guarded by the version read in the same call.
type ChangeDatesInput struct {
	RequestID       string
	ExpectedVersion int64
	StartDate       time.Time
	EndDate         time.Time
}

type ChangeCarInput struct {
	RequestID       string
	ExpectedVersion int64
	CarID           uuid.UUID
}

type ChangePricesInput struct {
	RequestID            string
	ExpectedVersion      int64
	AgreedPrice          *domain.Money
	PricePerDay          *domain.Money
	AdditionalFees       domain.Money
	AdditionalFeesReason string
	Discount             domain.Money
	DiscountReason       string
}

type DeliverCarInput struct {
	RequestID            string
	ExpectedVersion      int64
	OdometerStart        int64
	FuelLevelStart       domain.FuelLevel
	DeliveredAt          time.Time
	Notes                string
	HasPreExistingDamage bool
	DamageDescription    string
}

type ReturnCarInput struct {
	RequestID               string
	ExpectedVersion         int64
	OdometerEnd             int64
	FuelLevelEnd            domain.FuelLevel
	ReturnedAt              time.Time
	Notes                   string
	HasDamage               bool
	DamageDescription       string
	AdditionalCharges       domain.Money
	AdditionalChargesReason string
}

type CancelInput struct {
	RequestID       string
	ExpectedVersion int64
	Reason          string
}

type AddPaymentInput struct {
	RequestID       string
	Amount          domain.Money
	Method          domain.PaymentMethod
	ReferenceNumber string
	PaymentDate     time.Time
	Notes           string
}

// PaymentResult is returned by ledger mutations. OverpaymentWarning is
// set when the invoice's outstanding balance went negative.
type PaymentResult struct {
	Invoice            *domain.Invoice
	Payment            *domain.Payment
	OverpaymentWarning bool
}

type ReservationService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateReservationInput) (*domain.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error)
	CurrentForCar(ctx context.Context, carID uuid.UUID, at time.Time) (*domain.Reservation, error)
	UpcomingForCar(ctx context.Context, carID uuid.UUID, after time.Time) ([]domain.Reservation, error)
	ChangeDates(ctx context.Context, actor domain.Actor, id uuid.UUID, in ChangeDatesInput) (*domain.Reservation, error)
	ChangeCar(ctx context.Context, actor domain.Actor, id uuid.UUID, in ChangeCarInput) (*domain.Reservation, error)
	ChangePrices(ctx context.Context, actor domain.Actor, id uuid.UUID, in ChangePricesInput) (*domain.Reservation, error)
	DeliverCar(ctx context.Context, actor domain.Actor, id uuid.UUID, in DeliverCarInput) (*domain.Reservation, error)
	ReturnCar(ctx context.Context, actor domain.Actor, id uuid.UUID, in ReturnCarInput) (*domain.Reservation, error)
	Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID, in CancelInput) (*domain.Reservation, error)
	FindAvailableCars(ctx context.Context, start, end time.Time, excludeReservationID uuid.UUID) ([]domain.Car, error)
	// MarkOverdue flags Ongoing reservations whose end date has passed.
	// Returns the number of reservations newly flagged.
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

type InvoiceService interface {
	Generate(ctx context.Context, actor domain.Actor, reservationID uuid.UUID) (*domain.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error)
	AddPayment(ctx context.Context, actor domain.Actor, invoiceID uuid.UUID, in AddPaymentInput) (*PaymentResult, error)
	RefundPayment(ctx context.Context, actor domain.Actor, invoiceID, paymentID uuid.UUID, requestID, reason string) (*PaymentResult, error)
	// SendUnpaidReminders emails the customers of every invoice issued
	// before the cutoff that still has an outstanding balance.
	SendUnpaidReminders(ctx context.Context, issuedBefore time.Time) (int, error)
}

type NotificationService interface {
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Notification, error)
}

type EmailService interface {
	SendReservationCompleted(ctx context.Context, email, name string, reservationID uuid.UUID, finalPrice domain.Money, currency string) error
	SendReservationCancelled(ctx context.Context, email, name, reason string) error
	SendReservationOverdue(ctx context.Context, email, name string, reservationID uuid.UUID, endDate time.Time) error
	SendInvoiceIssued(ctx context.Context, email, name string, invoiceID uuid.UUID, amount domain.Money, currency string) error
	SendPaymentReceipt(ctx context.Context, email, name string, amount domain.Money, currency string, outstanding domain.Money) error
	SendUnpaidInvoiceReminder(ctx context.Context, email, name string, invoiceID uuid.UUID, outstanding domain.Money, currency string, issuedAt time.Time) error
}
