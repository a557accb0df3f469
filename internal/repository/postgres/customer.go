package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, phone_number, is_blacklisted FROM customers WHERE id = $1`, id)
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.PhoneNumber, &c.IsBlacklisted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "customer", ID: id}
		}
		return nil, wrapPersistence("get customer", err)
	}
	return &c, nil
}
