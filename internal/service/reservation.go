package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/logger"
	"rentify-backend/internal/pricing"
	"rentify-backend/internal/repository"
)

type reservationService struct {
	reservationRepo repository.ReservationRepository
	carRepo         repository.CarRepository
	customerRepo    repository.CustomerRepository
	invoiceRepo     repository.InvoiceRepository
	noteRepo        repository.NotificationRepository
	emailSvc        EmailService
	currency        string
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	carRepo repository.CarRepository,
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	noteRepo repository.NotificationRepository,
	emailSvc EmailService,
	currency string,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		carRepo:         carRepo,
		customerRepo:    customerRepo,
		invoiceRepo:     invoiceRepo,
		noteRepo:        noteRepo,
		emailSvc:        emailSvc,
		currency:        currency,
	}
}

func (s *reservationService) Create(ctx context.Context, actor domain.Actor, in CreateReservationInput) (*domain.Reservation, error) {
	car, err := s.carRepo.GetByID(ctx, in.CarID)
	if err != nil {
		return nil, err
	}
	customers := make([]*domain.Customer, 0, len(in.CustomerIDs))
	for _, cid := range in.CustomerIDs {
		c, err := s.customerRepo.GetByID(ctx, cid)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	busy, err := s.reservationRepo.FindBusyCarIDs(ctx, in.StartDate, in.EndDate, uuid.Nil)
	if err != nil {
		return nil, err
	}
	for _, id := range busy {
		if id == in.CarID {
			return nil, &domain.VehicleUnavailableError{CarID: in.CarID, Start: in.StartDate, End: in.EndDate}
		}
	}

	now := time.Now().UTC()
	rs, err := domain.NewReservation(in.CarID, in.CustomerIDs, in.StartDate, in.EndDate, actor, now)
	if err != nil {
		return nil, err
	}

	var quote pricing.Quote
	if in.AgreedPrice != nil {
		quote, err = pricing.ComputeWithAgreedPrice(*in.AgreedPrice, in.StartDate, in.EndDate,
			in.AdditionalFees, in.Discount, in.AdditionalFeesReason, in.DiscountReason)
	} else {
		quote, err = pricing.Compute(car.DailyRate, in.StartDate, in.EndDate,
			in.AdditionalFees, in.Discount, in.AdditionalFeesReason, in.DiscountReason)
	}
	if err != nil {
		return nil, err
	}

	rs.PickupLocation = in.PickupLocation
	rs.DropoffLocation = in.DropoffLocation
	rs.PricePerDay = quote.PricePerDay
	rs.AgreedPrice = quote.AgreedPrice
	rs.AdditionalFees = in.AdditionalFees
	rs.AdditionalFeesReason = in.AdditionalFeesReason
	rs.Discount = in.Discount
	rs.DiscountReason = in.DiscountReason
	rs.FinalPrice = quote.FinalPrice
	rs.DepositAmount = in.DepositAmount
	rs.LastRequestID = in.RequestID

	// The exclusion constraint on (car_id, rental period) is the race
	// backstop; the query above only gives a friendly early answer.
	if err := s.reservationRepo.Create(ctx, rs); err != nil {
		return nil, err
	}

	for _, c := range customers {
		if c.IsBlacklisted {
			logger.WarnContext(ctx, "reservation created for blacklisted customer",
				"reservation_id", rs.ID, "customer_id", c.ID)
		}
	}
	return rs, nil
}

func (s *reservationService) Get(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

func (s *reservationService) ListByCar(ctx context.Context, carID uuid.UUID) ([]domain.Reservation, error) {
	return s.reservationRepo.ListByCar(ctx, carID)
}

func (s *reservationService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Reservation, error) {
	return s.reservationRepo.ListByCustomer(ctx, customerID)
}

func (s *reservationService) CurrentForCar(ctx context.Context, carID uuid.UUID, at time.Time) (*domain.Reservation, error) {
	return s.reservationRepo.CurrentForCar(ctx, carID, at)
}

func (s *reservationService) UpcomingForCar(ctx context.Context, carID uuid.UUID, after time.Time) ([]domain.Reservation, error) {
	return s.reservationRepo.UpcomingForCar(ctx, carID, after)
}

// loadForUpdate fetches the aggregate and applies the idempotency and
// version checks shared by every mutation. The bool result is true when
// the request was already applied and the call should return as-is.
func (s *reservationService) loadForUpdate(ctx context.Context, id uuid.UUID, requestID string, expectedVersion int64) (*domain.Reservation, bool, error) {
	rs, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if requestID != "" && rs.LastRequestID == requestID {
		logger.InfoContext(ctx, "repeated request, returning current state",
			"reservation_id", id, "request_id", requestID)
		return rs, true, nil
	}
	if expectedVersion != 0 && expectedVersion != rs.Version {
		return nil, false, &domain.ConcurrentModificationError{ReservationID: id, ExpectedVersion: expectedVersion}
	}
	return rs, false, nil
}

func (s *reservationService) ChangeDates(ctx context.Context, actor domain.Actor, id uuid.UUID, in ChangeDatesInput) (*domain.Reservation, error) {
	rs, done, err := s.loadForUpdate(ctx, id, in.RequestID, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if done {
		return rs, nil
	}

	busy, err := s.reservationRepo.FindBusyCarIDs(ctx, in.StartDate, in.EndDate, rs.ID)
	if err != nil {
		return nil, err
	}
	for _, cid := range busy {
		if cid == rs.CarID {
			return nil, &domain.VehicleUnavailableError{CarID: rs.CarID, Start: in.StartDate, End: in.EndDate}
		}
	}

	now := time.Now().UTC()
	loadedVersion := rs.Version
	prevAgreed, prevFinal := rs.AgreedPrice, rs.FinalPrice

	if err := rs.ChangeDates(in.StartDate, in.EndDate, now); err != nil {
		return nil, err
	}
	// Dates moved, so the rate-derived price is re-established from the
	// per-day rate. A manual agreed price does not survive a date edit.
	quote, err := pricing.Compute(rs.PricePerDay, in.StartDate, in.EndDate,
		rs.AdditionalFees, rs.Discount, rs.AdditionalFeesReason, rs.DiscountReason)
	if err != nil {
		return nil, err
	}
	rs.AgreedPrice = quote.AgreedPrice
	rs.FinalPrice = quote.FinalPrice
	rs.LastRequestID = in.RequestID

	if err := s.reservationRepo.Save(ctx, rs, loadedVersion); err != nil {
		return nil, err
	}
	s.auditPriceChange(ctx, rs, prevAgreed, prevFinal, actor, now)
	return rs, nil
}

func (s *reservationService) ChangeCar(ctx context.Context, actor domain.Actor, id uuid.UUID, in ChangeCarInput) (*domain.Reservation, error) {
	rs, done, err := s.loadForUpdate(ctx, id, in.RequestID, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if done {
		return rs, nil
	}

	car, err := s.carRepo.GetByID(ctx, in.CarID)
	if err != nil {
		return nil, err
	}
	busy, err := s.reservationRepo.FindBusyCarIDs(ctx, rs.StartDate, rs.EndDate, rs.ID)
	if err != nil {
		return nil, err
	}
	for _, cid := range busy {
		if cid == in.CarID {
			return nil, &domain.VehicleUnavailableError{CarID: in.CarID, Start: rs.StartDate, End: rs.EndDate}
		}
	}

	now := time.Now().UTC()
	loadedVersion := rs.Version
	prevAgreed, prevFinal := rs.AgreedPrice, rs.FinalPrice

	if err := rs.ChangeCar(in.CarID, now); err != nil {
		return nil, err
	}
	quote, err := pricing.Compute(car.DailyRate, rs.StartDate, rs.EndDate,
		rs.AdditionalFees, rs.Discount, rs.AdditionalFeesReason, rs.DiscountReason)
	if err != nil {
		return nil, err
	}
	rs.PricePerDay = quote.PricePerDay
	rs.AgreedPrice = quote.AgreedPrice
	rs.FinalPrice = quote.FinalPrice
	rs.LastRequestID = in.RequestID

	if err := s.reservationRepo.Save(ctx, rs, loadedVersion); err != nil {
		return nil, err
	}
	s.auditPriceChange(ctx, rs, prevAgreed, prevFinal, actor, now)
	return rs, nil
}

func (s *reservationService) ChangePrices(ctx context.Context, actor domain.Actor, id uuid.UUID, in ChangePricesInput) (*domain.Reservation, error) {
	rs, done, err := s.loadForUpdate(ctx, id, in.RequestID, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if done {
		return rs, nil
	}
	// Pricing is only editable while Reserved, like dates and vehicle.
	// Post-delivery charges go through the return flow's additional
	// charges instead.
	if rs.Status != domain.ReservationStatusReserved {
		return nil, &domain.EditLockedError{ReservationID: rs.ID, Status: rs.Status, Edit: "pricing"}
	}

	now := time.Now().UTC()
	loadedVersion := rs.Version
	prevAgreed, prevFinal := rs.AgreedPrice, rs.FinalPrice

	var quote pricing.Quote
	switch {
	case in.AgreedPrice != nil:
		quote, err = pricing.ComputeWithAgreedPrice(*in.AgreedPrice, rs.StartDate, rs.EndDate,
			in.AdditionalFees, in.Discount, in.AdditionalFeesReason, in.DiscountReason)
	case in.PricePerDay != nil:
		quote, err = pricing.Compute(*in.PricePerDay, rs.StartDate, rs.EndDate,
			in.AdditionalFees, in.Discount, in.AdditionalFeesReason, in.DiscountReason)
	default:
		quote, err = pricing.Compute(rs.PricePerDay, rs.StartDate, rs.EndDate,
			in.AdditionalFees, in.Discount, in.AdditionalFeesReason, in.DiscountReason)
	}
	if err != nil {
		return nil, err
	}

	rs.PricePerDay = quote.PricePerDay
	rs.AgreedPrice = quote.AgreedPrice
	rs.AdditionalFees = in.AdditionalFees
	rs.AdditionalFeesReason = in.AdditionalFeesReason
	rs.Discount = in.Discount
	rs.DiscountReason = in.DiscountReason
	rs.FinalPrice = quote.FinalPrice
	rs.UpdatedAt = now
	rs.LastRequestID = in.RequestID

	if err := s.reservationRepo.Save(ctx, rs, loadedVersion); err != nil {
		return nil, err
	}
	s.auditPriceChange(ctx, rs, prevAgreed, prevFinal, actor, now)
	return rs, nil
}

func (s *reservationService) DeliverCar(ctx context.Context, actor domain.Actor, id uuid.UUID, in DeliverCarInput) (*domain.Reservation, error) {
	rs, done, err := s.loadForUpdate(ctx, id, in.RequestID, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if done {
		return rs, nil
	}

	for _, cid := range rs.CustomerIDs {
		c, err := s.customerRepo.GetByID(ctx, cid)
		if err != nil {
			return nil, err
		}
		if c.IsBlacklisted {
			return nil, &domain.ValidationError{
				Field:  "customers",
				Reason: fmt.Sprintf("customer %s is blacklisted", c.FullName),
			}
		}
	}

	// Re-check for conflicting active bookings before handing the car
	// over. The window may have been booked since this reservation was
	// created.
	active, err := s.reservationRepo.ListActiveByCar(ctx, rs.CarID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		other := &active[i]
		if other.ID == rs.ID {
			continue
		}
		if other.Status == domain.ReservationStatusOngoing ||
			domain.Overlaps(other.StartDate, other.EndDate, rs.StartDate, rs.EndDate) {
			return nil, &domain.VehicleUnavailableError{CarID: rs.CarID, Start: rs.StartDate, End: rs.EndDate}
		}
	}

	now := time.Now().UTC()
	loadedVersion := rs.Version
	deliveredAt := in.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = now
	}
	snap := domain.DeliverySnapshot{
		OdometerStart:        in.OdometerStart,
		FuelLevelStart:       in.FuelLevelStart,
		DeliveredAt:          deliveredAt,
		Notes:                in.Notes,
		HasPreExistingDamage: in.HasPreExistingDamage,
		DamageDescription:    in.DamageDescription,
	}
	if err := rs.Deliver(snap, actor, now); err != nil {
		return nil, err
	}
	rs.LastRequestID = in.RequestID

	if err := s.reservationRepo.Save(ctx, rs, loadedVersion); err != nil {
		return nil, err
	}
	if err := s.carRepo.SyncOdometer(ctx, rs.CarID, in.OdometerStart, domain.CarStatusRented, deliveredAt); err != nil {
		logger.ErrorContext(ctx, "failed to sync car odometer at delivery",
			"car_id", rs.CarID, "error", err)
	}
	return rs, nil
}

func (s *reservationService) ReturnCar(ctx context.Context, actor domain.Actor, id uuid.UUID, in ReturnCarInput) (*domain.Reservation, error) {
	rs, done, err := s.loadForUpdate(ctx, id, in.RequestID, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if done {
		// The earlier call may have failed between saving the aggregate
		// and issuing the invoice; make sure the invoice exists.
		if rs.Status == domain.ReservationStatusCompleted {
			if _, err := s.ensureInvoice(ctx, rs, actor); err != nil {
				return nil, err
			}
		}
		return rs, nil
	}

	now := time.Now().UTC()
	loadedVersion := rs.Version
	prevAgreed, prevFinal := rs.AgreedPrice, rs.FinalPrice
	returnedAt := in.ReturnedAt
	if returnedAt.IsZero() {
		returnedAt = now
	}
	snap := domain.ReturnSnapshot{
		OdometerEnd:       in.OdometerEnd,
		FuelLevelEnd:      in.FuelLevelEnd,
		ReturnedAt:        returnedAt,
		Notes:             in.Notes,
		HasDamage:         in.HasDamage,
		DamageDescription: in.DamageDescription,
	}
	if err := rs.Return(snap, actor, now); err != nil {
		return nil, err
	}

	priceChanged := false
	if in.AdditionalCharges.IsPositive() {
		fees := rs.AdditionalFees.Add(in.AdditionalCharges)
		reason := rs.AdditionalFeesReason
		if reason == "" {
			reason = in.AdditionalChargesReason
		} else if in.AdditionalChargesReason != "" {
			reason = reason + "; " + in.AdditionalChargesReason
		}
		quote, err := pricing.ComputeWithAgreedPrice(rs.AgreedPrice, rs.StartDate, rs.EndDate,
			fees, rs.Discount, reason, rs.DiscountReason)
		if err != nil {
			return nil, err
		}
		rs.AdditionalFees = fees
		rs.AdditionalFeesReason = reason
		rs.FinalPrice = quote.FinalPrice
		priceChanged = true
	}
	rs.LastRequestID = in.RequestID

	if err := s.reservationRepo.Save(ctx, rs, loadedVersion); err != nil {
		return nil, err
	}
	if priceChanged {
		s.auditPriceChange(ctx, rs, prevAgreed, prevFinal, actor, now)
	}
	if err := s.carRepo.SyncOdometer(ctx, rs.CarID, in.OdometerEnd, domain.CarStatusAvailable, returnedAt); err != nil {
		logger.ErrorContext(ctx, "failed to sync car odometer at return",
			"car_id", rs.CarID, "error", err)
	}

	inv, err := s.ensureInvoice(ctx, rs, actor)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, domain.NotificationReservationCompleted, rs.ID, "Reservation Completed",
		fmt.Sprintf("Reservation %s completed, invoiced %s %s", rs.ID, inv.Amount, s.currency),
		map[string]string{"invoice_id": inv.ID.String()})
	for _, cid := range rs.CustomerIDs {
		c, err := s.customerRepo.GetByID(ctx, cid)
		if err != nil || c.Email == "" {
			continue
		}
		_ = s.emailSvc.SendReservationCompleted(ctx, c.Email, c.FullName, rs.ID, rs.FinalPrice, s.currency)
		_ = s.emailSvc.SendInvoiceIssued(ctx, c.Email, c.FullName, inv.ID, inv.Amount, s.currency)
	}
	return rs, nil
}

func (s *reservationService) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID, in CancelInput) (*domain.Reservation, error) {
	rs, done, err := s.loadForUpdate(ctx, id, in.RequestID, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if done {
		return rs, nil
	}

	wasOngoing := rs.Status == domain.ReservationStatusOngoing
	now := time.Now().UTC()
	loadedVersion := rs.Version

	if err := rs.Cancel(in.Reason, actor, now); err != nil {
		return nil, err
	}
	rs.LastRequestID = in.RequestID

	if err := s.reservationRepo.Save(ctx, rs, loadedVersion); err != nil {
		return nil, err
	}
	if wasOngoing {
		if err := s.carRepo.UpdateStatus(ctx, rs.CarID, domain.CarStatusAvailable); err != nil {
			logger.ErrorContext(ctx, "failed to release car after cancellation",
				"car_id", rs.CarID, "error", err)
		}
	}

	s.notify(ctx, domain.NotificationReservationCancelled, rs.ID, "Reservation Cancelled",
		fmt.Sprintf("Reservation %s was cancelled: %s", rs.ID, in.Reason), nil)
	for _, cid := range rs.CustomerIDs {
		c, err := s.customerRepo.GetByID(ctx, cid)
		if err != nil || c.Email == "" {
			continue
		}
		_ = s.emailSvc.SendReservationCancelled(ctx, c.Email, c.FullName, in.Reason)
	}
	return rs, nil
}

func (s *reservationService) FindAvailableCars(ctx context.Context, start, end time.Time, excludeReservationID uuid.UUID) ([]domain.Car, error) {
	if !end.After(start) {
		return nil, &domain.InvalidRangeError{Start: start, End: end}
	}
	cars, err := s.carRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	busy, err := s.reservationRepo.FindBusyCarIDs(ctx, start, end, excludeReservationID)
	if err != nil {
		return nil, err
	}
	busySet := make(map[uuid.UUID]struct{}, len(busy))
	for _, id := range busy {
		busySet[id] = struct{}{}
	}
	available := make([]domain.Car, 0, len(cars))
	for _, c := range cars {
		if _, ok := busySet[c.ID]; !ok {
			available = append(available, c)
		}
	}
	return available, nil
}

func (s *reservationService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.reservationRepo.ListOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	flagged := 0
	for i := range overdue {
		rs := &overdue[i]
		existing, err := s.noteRepo.ListByReservation(ctx, rs.ID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load notifications for overdue check",
				"reservation_id", rs.ID, "error", err)
			continue
		}
		already := false
		for _, n := range existing {
			if n.Type == domain.NotificationReservationOverdue {
				already = true
				break
			}
		}
		if already {
			continue
		}
		s.notify(ctx, domain.NotificationReservationOverdue, rs.ID, "Reservation Overdue",
			fmt.Sprintf("Reservation %s passed its end date %s and the car is still out",
				rs.ID, rs.EndDate.Format("2006-01-02")), nil)
		for _, cid := range rs.CustomerIDs {
			c, err := s.customerRepo.GetByID(ctx, cid)
			if err != nil || c.Email == "" {
				continue
			}
			_ = s.emailSvc.SendReservationOverdue(ctx, c.Email, c.FullName, rs.ID, rs.EndDate)
		}
		flagged++
	}
	return flagged, nil
}

// ensureInvoice issues the invoice snapshot for a completed reservation,
// tolerating the case where an earlier attempt already created it.
func (s *reservationService) ensureInvoice(ctx context.Context, rs *domain.Reservation, actor domain.Actor) (*domain.Invoice, error) {
	inv := &domain.Invoice{
		ID:            uuid.New(),
		ReservationID: rs.ID,
		Amount:        rs.FinalPrice,
		Currency:      s.currency,
		IssuedAt:      time.Now().UTC(),
	}
	err := s.invoiceRepo.Create(ctx, inv)
	if err == nil {
		s.notify(ctx, domain.NotificationInvoiceGenerated, rs.ID, "Invoice Generated",
			fmt.Sprintf("Invoice for %s %s issued for reservation %s", inv.Amount, s.currency, rs.ID),
			map[string]string{"invoice_id": inv.ID.String()})
		return inv, nil
	}
	if errors.Is(err, domain.ErrDuplicateInvoice) {
		return s.invoiceRepo.GetByReservationID(ctx, rs.ID)
	}
	return nil, err
}

func (s *reservationService) auditPriceChange(ctx context.Context, rs *domain.Reservation, prevAgreed, prevFinal domain.Money, actor domain.Actor, at time.Time) {
	pc := &domain.PriceChange{
		ID:                   uuid.New(),
		ReservationID:        rs.ID,
		PreviousAgreedPrice:  prevAgreed,
		NewAgreedPrice:       rs.AgreedPrice,
		PreviousFinalPrice:   prevFinal,
		NewFinalPrice:        rs.FinalPrice,
		AdditionalFees:       rs.AdditionalFees,
		AdditionalFeesReason: rs.AdditionalFeesReason,
		Discount:             rs.Discount,
		DiscountReason:       rs.DiscountReason,
		ChangedAt:            at,
		ChangedBy:            actor.UserID,
	}
	if err := s.reservationRepo.AddPriceChange(ctx, pc); err != nil {
		logger.ErrorContext(ctx, "failed to record price change",
			"reservation_id", rs.ID, "error", err)
	}
}

func (s *reservationService) notify(ctx context.Context, typ domain.NotificationType, reservationID uuid.UUID, title, message string, attrs map[string]string) {
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
