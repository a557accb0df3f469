package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/repository"
)

type carRepository struct {
	db *sql.DB
}

func NewCarRepository(db *sql.DB) repository.CarRepository {
	return &carRepository{db: db}
}

func (r *carRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Car, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, license_plate, model, status, daily_rate, current_km, last_km_update FROM cars WHERE id = $1`, id)
	car, err := scanCar(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "car", ID: id}
		}
		return nil, wrapPersistence("get car", err)
	}
	return car, nil
}

func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, license_plate, model, status, daily_rate, current_km, last_km_update FROM cars ORDER BY license_plate`)
	if err != nil {
		return nil, wrapPersistence("list cars", err)
	}
	defer rows.Close()

	var out []domain.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, wrapPersistence("list cars", err)
		}
		out = append(out, *car)
	}
	return out, rows.Err()
}

func (r *carRepository) SyncOdometer(ctx context.Context, id uuid.UUID, km int64, status domain.CarStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cars SET current_km = $1, status = $2, last_km_update = $3 WHERE id = $4`, km, status, at, id)
	if err != nil {
		return wrapPersistence("sync car odometer", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapPersistence("sync car odometer", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "car", ID: id}
	}
	return nil
}

func (r *carRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CarStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cars SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return wrapPersistence("update car status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapPersistence("update car status", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Entity: "car", ID: id}
	}
	return nil
}

func scanCar(row rowScanner) (*domain.Car, error) {
	var c domain.Car
	var lastUpdate sql.NullTime
	if err := row.Scan(&c.ID, &c.LicensePlate, &c.Model, &c.Status, &c.DailyRate, &c.CurrentKM, &lastUpdate); err != nil {
		return nil, err
	}
	if lastUpdate.Valid {
		c.LastKMUpdate = &lastUpdate.Time
	}
	return &c, nil
}
