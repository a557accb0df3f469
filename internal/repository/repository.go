package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
)

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	// Save persists the aggregate in a single atomic write, guarded by
	// the version the caller loaded. A stale version yields
	// domain.ConcurrentModificationError.
	Save(ctx context.Context, r *domain.Reservation, expectedVersion int64) error
	ListByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error)
	// ListActiveByCar returns the Reserved and Ongoing reservations of a
	// car; these are the only ones that block availability.
	ListActiveByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error)
	CurrentForCar(ctx context.Context, carID uuid.UUID, at time.Time) (*domain.Reservation, error)
	UpcomingForCar(ctx context.Context, carID uuid.UUID, after time.Time) ([]domain.Reservation, error)
	// FindBusyCarIDs returns the cars with an overlapping active
	// reservation in [start, end), excluding the reservation being
	// edited from its own overlap check.
	FindBusyCarIDs(ctx context.Context, start, end time.Time, excludeReservationID uuid.UUID) ([]uuid.UUID, error)
	// ListOverdue returns Ongoing reservations whose end date has passed.
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Reservation, error)
	AddPriceChange(ctx context.Context, pc *domain.PriceChange) error
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error)
	// AppendPayment inserts a new payment row. Payments are never
	// updated or deleted; totals are recomputed from rows on read.
	AppendPayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, invoiceID, paymentID uuid.UUID) (*domain.Payment, error)
	ListUnpaidSince(ctx context.Context, issuedBefore time.Time) ([]domain.Invoice, error)
}

type CarRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Car, error)
	List(ctx context.Context) ([]domain.Car, error)
	// SyncOdometer records the odometer reading captured at delivery or
	// return, together with the car's new rental status.
	SyncOdometer(ctx context.Context, id uuid.UUID, km int64, status domain.CarStatus, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CarStatus) error
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Notification, error)
}
