package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "Reserved"
	ReservationStatusOngoing   ReservationStatus = "Ongoing"
	ReservationStatusCompleted ReservationStatus = "Completed"
	ReservationStatusCancelled ReservationStatus = "Cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusOngoing, ReservationStatusCompleted, ReservationStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave this status.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusCompleted || s == ReservationStatusCancelled
}

// legalTransitions is the full transition relation. Status is only ever
// mutated through Reservation.transition, which consults this table.
var legalTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusReserved: {ReservationStatusOngoing, ReservationStatusCancelled},
	ReservationStatusOngoing:  {ReservationStatusCompleted, ReservationStatusCancelled},
}

// Actor identifies the user performing a mutation. It is always passed
// explicitly into the service layer; nothing reads it from ambient state.
type Actor struct {
	UserID string
	Name   string
}

// DeliverySnapshot captures the car's condition at handover.
type DeliverySnapshot struct {
	OdometerStart        int64
	FuelLevelStart       FuelLevel
	DeliveredAt          time.Time
	Notes                string
	HasPreExistingDamage bool
	DamageDescription    string
}

// ReturnSnapshot captures the car's condition when it comes back.
type ReturnSnapshot struct {
	OdometerEnd       int64
	FuelLevelEnd      FuelLevel
	ReturnedAt        time.Time
	Notes             string
	HasDamage         bool
	DamageDescription string
}

// Reservation is the aggregate root of the rental lifecycle. It owns
// its status, dates, pricing fields and condition snapshots. The
// invoice, when one exists, holds a foreign key back to it and is owned
// by the ledger.
type Reservation struct {
	ID          uuid.UUID
	CarID       uuid.UUID
	CustomerIDs []uuid.UUID
	Status      ReservationStatus
	StartDate   time.Time
	EndDate     time.Time

	PickupLocation  string
	DropoffLocation string

	// Pricing. FinalPrice = AgreedPrice + AdditionalFees - Discount,
	// re-established by the pricing calculator on every relevant edit.
	PricePerDay          Money
	AgreedPrice          Money
	AdditionalFees       Money
	AdditionalFeesReason string
	Discount             Money
	DiscountReason       string
	FinalPrice           Money
	DepositAmount        Money

	// Delivery snapshot (set on Reserved -> Ongoing).
	OdometerStart        *int64
	FuelLevelStart       *FuelLevel
	DeliveredAt          *time.Time
	DeliveredBy          string
	DeliveryNotes        string
	HasPreExistingDamage bool
	PreDamageDescription string

	// Return snapshot (set on Ongoing -> Completed).
	OdometerEnd       *int64
	FuelLevelEnd      *FuelLevel
	ReturnedAt        *time.Time
	ReturnedBy        string
	ReturnNotes       string
	HasDamage         bool
	DamageDescription string

	CancellationReason string
	CanceledAt         *time.Time
	CanceledBy         string

	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time

	// Version backs the optimistic concurrency check: saves specify the
	// version they loaded and fail when the row has moved on.
	Version int64

	// LastRequestID is the idempotency key of the last applied mutating
	// call. A repeated key short-circuits to a no-op success.
	LastRequestID string
}

// NewReservation creates a reservation in the Reserved state. Dates are
// validated; pricing is the caller's responsibility (via the pricing
// calculator) before persisting.
func NewReservation(carID uuid.UUID, customerIDs []uuid.UUID, start, end time.Time, actor Actor, now time.Time) (*Reservation, error) {
	if !end.After(start) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	if len(customerIDs) == 0 {
		return nil, &ValidationError{Field: "customerIds", Reason: "at least one customer is required"}
	}
	return &Reservation{
		ID:          uuid.New(),
		CarID:       carID,
		CustomerIDs: customerIDs,
		Status:      ReservationStatusReserved,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		CreatedBy:   actor.UserID,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

// CanTransitionTo reports whether the state machine permits moving from
// the current status to the target.
func (r *Reservation) CanTransitionTo(to ReservationStatus) bool {
	for _, t := range legalTransitions[r.Status] {
		if t == to {
			return true
		}
	}
	return false
}

func (r *Reservation) transition(to ReservationStatus) error {
	if !r.CanTransitionTo(to) {
		return &IllegalTransitionError{ReservationID: r.ID, From: r.Status, To: to}
	}
	r.Status = to
	return nil
}

// Deliver applies the Reserved -> Ongoing transition with the handover
// snapshot. Validation is complete before any field is written; on error
// the aggregate is unchanged.
func (r *Reservation) Deliver(snap DeliverySnapshot, actor Actor, now time.Time) error {
	if !r.CanTransitionTo(ReservationStatusOngoing) {
		return &IllegalTransitionError{ReservationID: r.ID, From: r.Status, To: ReservationStatusOngoing}
	}
	if snap.OdometerStart < 0 {
		return &ValidationError{Field: "odometerStart", Reason: "must not be negative"}
	}
	if !snap.FuelLevelStart.Valid() {
		return &ValidationError{Field: "fuelLevelStart", Reason: "must be between 0 and 100"}
	}
	if err := r.transition(ReservationStatusOngoing); err != nil {
		return err
	}
	odo := snap.OdometerStart
	fuel := snap.FuelLevelStart
	at := snap.DeliveredAt
	r.OdometerStart = &odo
	r.FuelLevelStart = &fuel
	r.DeliveredAt = &at
	r.DeliveredBy = actor.UserID
	r.DeliveryNotes = snap.Notes
	r.HasPreExistingDamage = snap.HasPreExistingDamage
	r.PreDamageDescription = snap.DamageDescription
	r.UpdatedAt = now
	return nil
}

// Return applies the Ongoing -> Completed transition with the return
// snapshot. The odometer must not have gone backwards.
func (r *Reservation) Return(snap ReturnSnapshot, actor Actor, now time.Time) error {
	if !r.CanTransitionTo(ReservationStatusCompleted) {
		return &IllegalTransitionError{ReservationID: r.ID, From: r.Status, To: ReservationStatusCompleted}
	}
	if r.OdometerStart != nil && snap.OdometerEnd < *r.OdometerStart {
		return &ValidationError{Field: "odometerEnd", Reason: "must not be below the delivery odometer reading"}
	}
	if !snap.FuelLevelEnd.Valid() {
		return &ValidationError{Field: "fuelLevelEnd", Reason: "must be between 0 and 100"}
	}
	if err := r.transition(ReservationStatusCompleted); err != nil {
		return err
	}
	odo := snap.OdometerEnd
	fuel := snap.FuelLevelEnd
	at := snap.ReturnedAt
	r.OdometerEnd = &odo
	r.FuelLevelEnd = &fuel
	r.ReturnedAt = &at
	r.ReturnedBy = actor.UserID
	r.ReturnNotes = snap.Notes
	r.HasDamage = snap.HasDamage
	r.DamageDescription = snap.DamageDescription
	r.UpdatedAt = now
	return nil
}

// Cancel terminates the reservation from Reserved or Ongoing.
func (r *Reservation) Cancel(reason string, actor Actor, now time.Time) error {
	if err := r.transition(ReservationStatusCancelled); err != nil {
		return err
	}
	at := now
	r.CancellationReason = reason
	r.CanceledAt = &at
	r.CanceledBy = actor.UserID
	r.UpdatedAt = now
	return nil
}

// ChangeDates edits the booking window. Only legal while Reserved; after
// delivery, date changes require a distinct adjustment flow.
func (r *Reservation) ChangeDates(start, end time.Time, now time.Time) error {
	if r.Status != ReservationStatusReserved {
		return &EditLockedError{ReservationID: r.ID, Status: r.Status, Edit: "dates"}
	}
	if !end.After(start) {
		return &InvalidRangeError{Start: start, End: end}
	}
	r.StartDate = start
	r.EndDate = end
	r.UpdatedAt = now
	return nil
}

// ChangeCar reassigns the vehicle. Only legal while Reserved.
func (r *Reservation) ChangeCar(carID uuid.UUID, now time.Time) error {
	if r.Status != ReservationStatusReserved {
		return &EditLockedError{ReservationID: r.ID, Status: r.Status, Edit: "vehicle"}
	}
	r.CarID = carID
	r.UpdatedAt = now
	return nil
}

// BlocksAvailability reports whether this reservation excludes its car
// from availability queries. Completed and Cancelled never block.
func (r *Reservation) BlocksAvailability() bool {
	return !r.Status.Terminal()
}

// Overlaps applies half-open interval semantics: two bookings that only
// touch on the boundary day do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
