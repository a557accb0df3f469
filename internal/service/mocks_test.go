package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rentify-backend/internal/domain"
)

type MockReservationRepo struct{ mock.Mock }

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) Save(ctx context.Context, r *domain.Reservation, expectedVersion int64) error {
	args := m.Called(ctx, r, expectedVersion)
	return args.Error(0)
}

func (m *MockReservationRepo) ListByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error) {
	args := m.Called(ctx, carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) ListActiveByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error) {
	args := m.Called(ctx, carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) CurrentForCar(ctx context.Context, carID uuid.UUID, at time.Time) (*domain.Reservation, error) {
	args := m.Called(ctx, carID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) UpcomingForCar(ctx context.Context, carID uuid.UUID, after time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, carID, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) FindBusyCarIDs(ctx context.Context, start, end time.Time, excludeReservationID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, start, end, excludeReservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockReservationRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) AddPriceChange(ctx context.Context, pc *domain.PriceChange) error {
	args := m.Called(ctx, pc)
	return args.Error(0)
}

type MockInvoiceRepo struct{ mock.Mock }

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) AppendPayment(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockInvoiceRepo) GetPayment(ctx context.Context, invoiceID, paymentID uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, invoiceID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockInvoiceRepo) ListUnpaidSince(ctx context.Context, issuedBefore time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, issuedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

type MockCarRepo struct{ mock.Mock }

func (m *MockCarRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *MockCarRepo) List(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}

func (m *MockCarRepo) SyncOdometer(ctx context.Context, id uuid.UUID, km int64, status domain.CarStatus, at time.Time) error {
	args := m.Called(ctx, id, km, status, at)
	return args.Error(0)
}

func (m *MockCarRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CarStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockCustomerRepo struct{ mock.Mock }

func (m *MockCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockNotificationRepo struct{ mock.Mock }

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepo) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Notification, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

type MockEmailService struct{ mock.Mock }

func (m *MockEmailService) SendReservationCompleted(ctx context.Context, email, name string, reservationID uuid.UUID, finalPrice domain.Money, currency string) error {
	args := m.Called(ctx, email, name, reservationID, finalPrice, currency)
	return args.Error(0)
}

func (m *MockEmailService) SendReservationCancelled(ctx context.Context, email, name, reason string) error {
	args := m.Called(ctx, email, name, reason)
	return args.Error(0)
}

func (m *MockEmailService) SendReservationOverdue(ctx context.Context, email, name string, reservationID uuid.UUID, endDate time.Time) error {
	args := m.Called(ctx, email, name, reservationID, endDate)
	return args.Error(0)
}

func (m *MockEmailService) SendInvoiceIssued(ctx context.Context, email, name string, invoiceID uuid.UUID, amount domain.Money, currency string) error {
	args := m.Called(ctx, email, name, invoiceID, amount, currency)
	return args.Error(0)
}

func (m *MockEmailService) SendPaymentReceipt(ctx context.Context, email, name string, amount domain.Money, currency string, outstanding domain.Money) error {
	args := m.Called(ctx, email, name, amount, currency, outstanding)
	return args.Error(0)
}

func (m *MockEmailService) SendUnpaidInvoiceReminder(ctx context.Context, email, name string, invoiceID uuid.UUID, outstanding domain.Money, currency string, issuedAt time.Time) error {
	args := m.Called(ctx, email, name, invoiceID, outstanding, currency, issuedAt)
	return args.Error(0)
}
