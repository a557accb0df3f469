package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/repository"
)

// Store bundles all repository implementations over one *sql.DB.
type Store struct {
	db *sql.DB
	repository.ReservationRepository
	repository.InvoiceRepository
	repository.CarRepository
	repository.CustomerRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		ReservationRepository:  NewReservationRepository(db),
		InvoiceRepository:      NewInvoiceRepository(db),
		CarRepository:          NewCarRepository(db),
		CustomerRepository:     NewCustomerRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// wrapPersistence tags driver-level failures so callers can tell a
// transient persistence problem from a domain rejection.
func wrapPersistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrPersistence, err)
}
