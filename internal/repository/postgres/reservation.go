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

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, car_id, status, start_date, end_date, pickup_location, dropoff_location,
	price_per_day, agreed_price, additional_fees, additional_fees_reason, discount, discount_reason,
	final_price, deposit_amount,
	odometer_start, fuel_level_start, delivered_at, delivered_by, delivery_notes, has_pre_existing_damage, pre_damage_description,
	odometer_end, fuel_level_end, returned_at, returned_by, return_notes, has_damage, damage_description,
	cancellation_reason, canceled_at, canceled_by,
	created_at, created_by, updated_at, version, last_request_id`

func (r *reservationRepository) Create(ctx context.Context, rs *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapPersistence("create reservation", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO reservations (` + reservationColumns + `)
	          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37)`
	_, err = tx.ExecContext(ctx, query,
		rs.ID, rs.CarID, rs.Status, rs.StartDate, rs.EndDate, rs.PickupLocation, rs.DropoffLocation,
		rs.PricePerDay, rs.AgreedPrice, rs.AdditionalFees, rs.AdditionalFeesReason, rs.Discount, rs.DiscountReason,
		rs.FinalPrice, rs.DepositAmount,
		rs.OdometerStart, fuelValue(rs.FuelLevelStart), rs.DeliveredAt, rs.DeliveredBy, rs.DeliveryNotes, rs.HasPreExistingDamage, rs.PreDamageDescription,
		rs.OdometerEnd, fuelValue(rs.FuelLevelEnd), rs.ReturnedAt, rs.ReturnedBy, rs.ReturnNotes, rs.HasDamage, rs.DamageDescription,
		rs.CancellationReason, rs.CanceledAt, rs.CanceledBy,
		rs.CreatedAt, rs.CreatedBy, rs.UpdatedAt, rs.Version, rs.LastRequestID)
	if err != nil {
		if pqCode(err) == pqExclusionViolation {
			return &domain.VehicleUnavailableError{CarID: rs.CarID, Start: rs.StartDate, End: rs.EndDate}
		}
		return wrapPersistence("create reservation", err)
	}

	for _, customerID := range rs.CustomerIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reservation_customers (reservation_id, customer_id, added_at) VALUES ($1, $2, $3)`,
			rs.ID, customerID, rs.CreatedAt)
		if err != nil {
			return wrapPersistence("create reservation customers", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapPersistence("create reservation", err)
	}
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	rs, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "reservation", ID: id}
		}
		return nil, wrapPersistence("get reservation", err)
	}
	if err := r.loadCustomers(ctx, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// Save writes the whole aggregate in one UPDATE guarded by the version
// the caller loaded, so a lost race surfaces instead of silently
// overwriting a concurrent transition.
func (r *reservationRepository) Save(ctx context.Context, rs *domain.Reservation, expectedVersion int64) error {
	query := `UPDATE reservations SET
		car_id=$1, status=$2, start_date=$3, end_date=$4, pickup_location=$5, dropoff_location=$6,
		price_per_day=$7, agreed_price=$8, additional_fees=$9, additional_fees_reason=$10, discount=$11, discount_reason=$12,
		final_price=$13, deposit_amount=$14,
		odometer_start=$15, fuel_level_start=$16, delivered_at=$17, delivered_by=$18, delivery_notes=$19, has_pre_existing_damage=$20, pre_damage_description=$21,
		odometer_end=$22, fuel_level_end=$23, returned_at=$24, returned_by=$25, return_notes=$26, has_damage=$27, damage_description=$28,
		cancellation_reason=$29, canceled_at=$30, canceled_by=$31,
		updated_at=$32, version=version+1, last_request_id=$33
	WHERE id=$34 AND version=$35`
	res, err := r.db.ExecContext(ctx, query,
		rs.CarID, rs.Status, rs.StartDate, rs.EndDate, rs.PickupLocation, rs.DropoffLocation,
		rs.PricePerDay, rs.AgreedPrice, rs.AdditionalFees, rs.AdditionalFeesReason, rs.Discount, rs.DiscountReason,
		rs.FinalPrice, rs.DepositAmount,
		rs.OdometerStart, fuelValue(rs.FuelLevelStart), rs.DeliveredAt, rs.DeliveredBy, rs.DeliveryNotes, rs.HasPreExistingDamage, rs.PreDamageDescription,
		rs.OdometerEnd, fuelValue(rs.FuelLevelEnd), rs.ReturnedAt, rs.ReturnedBy, rs.ReturnNotes, rs.HasDamage, rs.DamageDescription,
		rs.CancellationReason, rs.CanceledAt, rs.CanceledBy,
		rs.UpdatedAt, rs.LastRequestID,
		rs.ID, expectedVersion)
	if err != nil {
		if pqCode(err) == pqExclusionViolation {
			return &domain.VehicleUnavailableError{CarID: rs.CarID, Start: rs.StartDate, End: rs.EndDate}
		}
		return wrapPersistence("save reservation", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapPersistence("save reservation", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = $1)`, rs.ID).Scan(&exists); err != nil {
			return wrapPersistence("save reservation", err)
		}
		if !exists {
			return &domain.NotFoundError{Entity: "reservation", ID: rs.ID}
		}
		return &domain.ConcurrentModificationError{ReservationID: rs.ID, ExpectedVersion: expectedVersion}
	}
	rs.Version = expectedVersion + 1
	return nil
}

func (r *reservationRepository) ListByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE car_id = $1 ORDER BY start_date`, carID)
}

func (r *reservationRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE id IN (SELECT reservation_id FROM reservation_customers WHERE customer_id = $1)
	          ORDER BY start_date`
	return r.list(ctx, query, customerID)
}

func (r *reservationRepository) ListActiveByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE car_id = $1 AND status IN ('Reserved', 'Ongoing') ORDER BY start_date`
	return r.list(ctx, query, carID)
}

func (r *reservationRepository) CurrentForCar(ctx context.Context, carID uuid.UUID, at time.Time) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE car_id = $1 AND status = 'Ongoing' AND start_date <= $2 AND end_date >= $2
	          ORDER BY start_date LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, carID, at)
	rs, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "current reservation for car", ID: carID}
		}
		return nil, wrapPersistence("current reservation for car", err)
	}
	if err := r.loadCustomers(ctx, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *reservationRepository) UpcomingForCar(ctx context.Context, carID uuid.UUID, after time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE car_id = $1 AND status = 'Reserved' AND start_date > $2 ORDER BY start_date`
	return r.list(ctx, query, carID, after)
}

func (r *reservationRepository) FindBusyCarIDs(ctx context.Context, start, end time.Time, excludeReservationID uuid.UUID) ([]uuid.UUID, error) {
	// Half-open overlap: adjacent bookings that meet on the boundary
	// day do not conflict.
	query := `SELECT DISTINCT car_id FROM reservations
	          WHERE id <> $1
	            AND status IN ('Reserved', 'Ongoing')
	            AND start_date < $3
	            AND end_date > $2`
	rows, err := r.db.QueryContext(ctx, query, excludeReservationID, start, end)
	if err != nil {
		return nil, wrapPersistence("find busy cars", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapPersistence("find busy cars", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *reservationRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE status = 'Ongoing' AND end_date < $1 ORDER BY end_date`
	return r.list(ctx, query, asOf)
}

func (r *reservationRepository) AddPriceChange(ctx context.Context, pc *domain.PriceChange) error {
	query := `INSERT INTO reservation_price_history
	          (id, reservation_id, previous_agreed_price, new_agreed_price, previous_final_price, new_final_price,
	           additional_fees, additional_fees_reason, discount, discount_reason, changed_at, changed_by)
	          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.db.ExecContext(ctx, query,
		pc.ID, pc.ReservationID, pc.PreviousAgreedPrice, pc.NewAgreedPrice, pc.PreviousFinalPrice, pc.NewFinalPrice,
		pc.AdditionalFees, pc.AdditionalFeesReason, pc.Discount, pc.DiscountReason, pc.ChangedAt, pc.ChangedBy)
	if err != nil {
		return wrapPersistence("add price change", err)
	}
	return nil
}

func (r *reservationRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapPersistence("list reservations", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rs, err := scanReservation(rows)
		if err != nil {
			return nil, wrapPersistence("list reservations", err)
		}
		out = append(out, *rs)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPersistence("list reservations", err)
	}
	for i := range out {
		if err := r.loadCustomers(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *reservationRepository) loadCustomers(ctx context.Context, rs *domain.Reservation) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT customer_id FROM reservation_customers WHERE reservation_id = $1 ORDER BY added_at`, rs.ID)
	if err != nil {
		return wrapPersistence("load reservation customers", err)
	}
	defer rows.Close()

	rs.CustomerIDs = rs.CustomerIDs[:0]
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return wrapPersistence("load reservation customers", err)
		}
		rs.CustomerIDs = append(rs.CustomerIDs, id)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var rs domain.Reservation
	var (
		odoStart, odoEnd   sql.NullInt64
		fuelStart, fuelEnd sql.NullInt64
		deliveredAt        sql.NullTime
		returnedAt         sql.NullTime
		canceledAt         sql.NullTime
	)
	err := row.Scan(
		&rs.ID, &rs.CarID, &rs.Status, &rs.StartDate, &rs.EndDate, &rs.PickupLocation, &rs.DropoffLocation,
		&rs.PricePerDay, &rs.AgreedPrice, &rs.AdditionalFees, &rs.AdditionalFeesReason, &rs.Discount, &rs.DiscountReason,
		&rs.FinalPrice, &rs.DepositAmount,
		&odoStart, &fuelStart, &deliveredAt, &rs.DeliveredBy, &rs.DeliveryNotes, &rs.HasPreExistingDamage, &rs.PreDamageDescription,
		&odoEnd, &fuelEnd, &returnedAt, &rs.ReturnedBy, &rs.ReturnNotes, &rs.HasDamage, &rs.DamageDescription,
		&rs.CancellationReason, &canceledAt, &rs.CanceledBy,
		&rs.CreatedAt, &rs.CreatedBy, &rs.UpdatedAt, &rs.Version, &rs.LastRequestID)
	if err != nil {
		return nil, err
	}
	if odoStart.Valid {
		rs.OdometerStart = &odoStart.Int64
	}
	if odoEnd.Valid {
		rs.OdometerEnd = &odoEnd.Int64
	}
	if fuelStart.Valid {
		f := domain.FuelLevel(fuelStart.Int64)
		rs.FuelLevelStart = &f
	}
	if fuelEnd.Valid {
		f := domain.FuelLevel(fuelEnd.Int64)
		rs.FuelLevelEnd = &f
	}
	if deliveredAt.Valid {
		rs.DeliveredAt = &deliveredAt.Time
	}
	if returnedAt.Valid {
		rs.ReturnedAt = &returnedAt.Time
	}
	if canceledAt.Valid {
		rs.CanceledAt = &canceledAt.Time
	}
	return &rs, nil
}

func fuelValue(f *domain.FuelLevel) interface{} {
	if f == nil {
		return nil
	}
	return int64(*f)
}
