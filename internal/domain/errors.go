package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors, for use with errors.Is. The structured types below
// wrap these and carry enough context for a caller to render an
// actionable message.
var (
	ErrInvalidRange           = errors.New("invalid date range")
	ErrIllegalTransition      = errors.New("illegal status transition")
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateInvoice       = errors.New("invoice already exists for reservation")
	ErrInvoiceClosed          = errors.New("invoice is closed to new payments")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrVehicleUnavailable     = errors.New("vehicle unavailable for requested dates")
	ErrNotFound               = errors.New("not found")
	ErrPersistence            = errors.New("persistence failure")
)

// InvalidRangeError reports a date range where end is not after start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s must be after start %s",
		e.End.Format("2006-01-02"), e.Start.Format("2006-01-02"))
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// IllegalTransitionError names both the current and the requested state.
type IllegalTransitionError struct {
	ReservationID uuid.UUID
	From          ReservationStatus
	To            ReservationStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("reservation %s: illegal transition %s -> %s", e.ReservationID, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// EditLockedError reports an edit of dates, vehicle or pricing attempted
// outside the Reserved state. Post-delivery adjustments go through the
// return flow instead.
type EditLockedError struct {
	ReservationID uuid.UUID
	Status        ReservationStatus
	Edit          string
}

func (e *EditLockedError) Error() string {
	return fmt.Sprintf("reservation %s: %s can only change while Reserved, status is %s",
		e.ReservationID, e.Edit, e.Status)
}

func (e *EditLockedError) Unwrap() error { return ErrIllegalTransition }

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicateInvoiceError is returned when a reservation already carries
// an invoice; invoices are issued at most once.
type DuplicateInvoiceError struct {
	ReservationID uuid.UUID
}

func (e *DuplicateInvoiceError) Error() string {
	return fmt.Sprintf("reservation %s already has an invoice", e.ReservationID)
}

func (e *DuplicateInvoiceError) Unwrap() error { return ErrDuplicateInvoice }

// InvoiceClosedError is returned when payments are attempted against an
// invoice whose reservation has been cancelled.
type InvoiceClosedError struct {
	InvoiceID         uuid.UUID
	ReservationStatus ReservationStatus
}

func (e *InvoiceClosedError) Error() string {
	return fmt.Sprintf("invoice %s: reservation is %s, no further payments accepted", e.InvoiceID, e.ReservationStatus)
}

func (e *InvoiceClosedError) Unwrap() error { return ErrInvoiceClosed }

// ConcurrentModificationError is returned when an optimistic version
// check fails. The caller should re-fetch and decide whether to retry.
type ConcurrentModificationError struct {
	ReservationID   uuid.UUID
	ExpectedVersion int64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("reservation %s was modified concurrently (expected version %d)", e.ReservationID, e.ExpectedVersion)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }

// VehicleUnavailableError reports an overlapping booking for the car.
type VehicleUnavailableError struct {
	CarID uuid.UUID
	Start time.Time
	End   time.Time
}

func (e *VehicleUnavailableError) Error() string {
	return fmt.Sprintf("car %s is not available between %s and %s",
		e.CarID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

func (e *VehicleUnavailableError) Unwrap() error { return ErrVehicleUnavailable }

// NotFoundError identifies the missing entity by kind and id.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsRetryable returns true if the operation might succeed if re-fetched
// and retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrPersistence)
}

// IsClientError returns true if the error is due to invalid client input
// rather than server state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrDuplicateInvoice) ||
		errors.Is(err, ErrInvoiceClosed) ||
		errors.Is(err, ErrVehicleUnavailable)
}
