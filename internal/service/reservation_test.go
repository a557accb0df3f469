package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rentify-backend/internal/domain"
)

var testActor = domain.Actor{UserID: "agent-1", Name: "Agent"}

type reservationFixture struct {
	resRepo      *MockReservationRepo
	carRepo      *MockCarRepo
	customerRepo *MockCustomerRepo
	invoiceRepo  *MockInvoiceRepo
	noteRepo     *MockNotificationRepo
	emailSvc     *MockEmailService
	svc          ReservationService
}

func newReservationFixture() *reservationFixture {
	f := &reservationFixture{
		resRepo:      new(MockReservationRepo),
		carRepo:      new(MockCarRepo),
		customerRepo: new(MockCustomerRepo),
		invoiceRepo:  new(MockInvoiceRepo),
		noteRepo:     new(MockNotificationRepo),
		emailSvc:     new(MockEmailService),
	}
	f.svc = NewReservationService(f.resRepo, f.carRepo, f.customerRepo, f.invoiceRepo, f.noteRepo, f.emailSvc, "MAD")
	return f
}

func day(n int) time.Time {
	return time.Date(2026, 5, n, 0, 0, 0, 0, time.UTC)
}

func reservedFixture(carID uuid.UUID, customerID uuid.UUID) *domain.Reservation {
	rs, _ := domain.NewReservation(carID, []uuid.UUID{customerID}, day(1), day(5), testActor, day(1).AddDate(0, 0, -7))
	rs.PricePerDay = domain.MustMoney("350.00")
	rs.AgreedPrice = domain.MustMoney("1400.00")
	rs.FinalPrice = domain.MustMoney("1400.00")
	rs.Version = 3
	return rs
}

func TestReservationService_Create(t *testing.T) {
	ctx := context.Background()
	carID := uuid.New()
	customerID := uuid.New()
	car := &domain.Car{ID: carID, DailyRate: domain.MustMoney("350.00")}
	customer := &domain.Customer{ID: customerID, FullName: "Yasmina", Email: "y@test.com"}

	t.Run("Success", func(t *testing.T) {
		f := newReservationFixture()
		f.carRepo.On("GetByID", ctx, carID).Return(car, nil)
		f.customerRepo.On("GetByID", ctx, customerID).Return(customer, nil)
		f.resRepo.On("FindBusyCarIDs", ctx, day(1), day(5), uuid.Nil).Return([]uuid.UUID{}, nil)
		f.resRepo.On("Create", ctx, mock.AnythingOfType("*domain.Reservation")).Return(nil)

		rs, err := f.svc.Create(ctx, testActor, CreateReservationInput{
			RequestID:   "req-1",
			CarID:       carID,
			CustomerIDs: []uuid.UUID{customerID},
			StartDate:   day(1),
			EndDate:     day(5),
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusReserved, rs.Status)
		assert.True(t, rs.AgreedPrice.Equal(domain.MustMoney("1400.00")))
		assert.True(t, rs.FinalPrice.Equal(domain.MustMoney("1400.00")))
		assert.Equal(t, "req-1", rs.LastRequestID)
	})

	t.Run("Car already booked", func(t *testing.T) {
		f := newReservationFixture()
		f.carRepo.On("GetByID", ctx, carID).Return(car, nil)
		f.customerRepo.On("GetByID", ctx, customerID).Return(customer, nil)
		f.resRepo.On("FindBusyCarIDs", ctx, day(1), day(5), uuid.Nil).Return([]uuid.UUID{carID}, nil)

		_, err := f.svc.Create(ctx, testActor, CreateReservationInput{
			CarID:       carID,
			CustomerIDs: []uuid.UUID{customerID},
			StartDate:   day(1),
			EndDate:     day(5),
		})
		assert.True(t, errors.Is(err, domain.ErrVehicleUnavailable))
		f.resRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Manual agreed price overrides the rate", func(t *testing.T) {
		f := newReservationFixture()
		agreed := domain.MustMoney("1000.00")
		f.carRepo.On("GetByID", ctx, carID).Return(car, nil)
		f.customerRepo.On("GetByID", ctx, customerID).Return(customer, nil)
		f.resRepo.On("FindBusyCarIDs", ctx, day(1), day(5), uuid.Nil).Return([]uuid.UUID{}, nil)
		f.resRepo.On("Create", ctx, mock.AnythingOfType("*domain.Reservation")).Return(nil)

		rs, err := f.svc.Create(ctx, testActor, CreateReservationInput{
			CarID:       carID,
			CustomerIDs: []uuid.UUID{customerID},
			StartDate:   day(1),
			EndDate:     day(5),
			AgreedPrice: &agreed,
		})
		assert.NoError(t, err)
		assert.True(t, rs.AgreedPrice.Equal(agreed))
		assert.True(t, rs.PricePerDay.Equal(domain.MustMoney("250.00")))
	})
}

func TestReservationService_ChangeDates(t *testing.T) {
	ctx := context.Background()
	carID := uuid.New()
	customerID := uuid.New()

	t.Run("Stale version is rejected before any write", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID) // version 3
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)

		_, err := f.svc.ChangeDates(ctx, testActor, rs.ID, ChangeDatesInput{
			RequestID:       "req-2",
			ExpectedVersion: 2,
			StartDate:       day(2),
			EndDate:         day(6),
		})
		assert.True(t, errors.Is(err, domain.ErrConcurrentModification))
		f.resRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Repeated request id is a no-op success", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		rs.LastRequestID = "req-2"
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)

		got, err := f.svc.ChangeDates(ctx, testActor, rs.ID, ChangeDatesInput{
			RequestID: "req-2",
			StartDate: day(2),
			EndDate:   day(6),
		})
		assert.NoError(t, err)
		assert.Equal(t, rs.ID, got.ID)
		f.resRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Price is re-derived from the per-day rate", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.resRepo.On("FindBusyCarIDs", ctx, day(1), day(7), rs.ID).Return([]uuid.UUID{}, nil)
		f.resRepo.On("Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3)).Return(nil)
		f.resRepo.On("AddPriceChange", ctx, mock.AnythingOfType("*domain.PriceChange")).Return(nil)

		got, err := f.svc.ChangeDates(ctx, testActor, rs.ID, ChangeDatesInput{
			RequestID: "req-3",
			StartDate: day(1),
			EndDate:   day(7),
		})
		assert.NoError(t, err)
		assert.True(t, got.AgreedPrice.Equal(domain.MustMoney("2100.00")))
		f.resRepo.AssertCalled(t, "Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3))
	})
}

func TestReservationService_ChangePrices(t *testing.T) {
	ctx := context.Background()
	carID := uuid.New()
	customerID := uuid.New()

	t.Run("Re-prices while Reserved", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		newRate := domain.MustMoney("400.00")
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.resRepo.On("Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3)).Return(nil)
		f.resRepo.On("AddPriceChange", ctx, mock.AnythingOfType("*domain.PriceChange")).Return(nil)

		got, err := f.svc.ChangePrices(ctx, testActor, rs.ID, ChangePricesInput{
			RequestID:   "req-7",
			PricePerDay: &newRate,
		})
		assert.NoError(t, err)
		assert.True(t, got.AgreedPrice.Equal(domain.MustMoney("1600.00")))
	})

	t.Run("Rejected after delivery", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		rs.Status = domain.ReservationStatusOngoing
		newRate := domain.MustMoney("400.00")
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)

		_, err := f.svc.ChangePrices(ctx, testActor, rs.ID, ChangePricesInput{
			PricePerDay: &newRate,
		})
		assert.True(t, errors.Is(err, domain.ErrIllegalTransition))
		f.resRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejected on terminal states", func(t *testing.T) {
		for _, status := range []domain.ReservationStatus{
			domain.ReservationStatusCompleted, domain.ReservationStatusCancelled,
		} {
			f := newReservationFixture()
			rs := reservedFixture(carID, customerID)
			rs.Status = status
			f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)

			_, err := f.svc.ChangePrices(ctx, testActor, rs.ID, ChangePricesInput{})
			assert.True(t, errors.Is(err, domain.ErrIllegalTransition), "status %s", status)
		}
	})
}

func TestReservationService_DeliverCar(t *testing.T) {
	ctx := context.Background()
	carID := uuid.New()
	customerID := uuid.New()

	t.Run("Blacklisted customer blocks handover", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.customerRepo.On("GetByID", ctx, customerID).
			Return(&domain.Customer{ID: customerID, FullName: "Karim", IsBlacklisted: true}, nil)

		_, err := f.svc.DeliverCar(ctx, testActor, rs.ID, DeliverCarInput{
			OdometerStart:  12000,
			FuelLevelStart: 80,
		})
		assert.True(t, errors.Is(err, domain.ErrValidation))
		f.resRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Conflicting active booking blocks handover", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		other := reservedFixture(carID, uuid.New())
		other.StartDate, other.EndDate = day(3), day(8)
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.customerRepo.On("GetByID", ctx, customerID).
			Return(&domain.Customer{ID: customerID, FullName: "Yasmina"}, nil)
		f.resRepo.On("ListActiveByCar", ctx, carID).Return([]domain.Reservation{*rs, *other}, nil)

		_, err := f.svc.DeliverCar(ctx, testActor, rs.ID, DeliverCarInput{
			OdometerStart:  12000,
			FuelLevelStart: 80,
		})
		assert.True(t, errors.Is(err, domain.ErrVehicleUnavailable))
	})

	t.Run("Back to back booking does not block handover", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID) // runs day 1 to 5
		next := reservedFixture(carID, uuid.New())
		next.StartDate, next.EndDate = day(5), day(10)
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.customerRepo.On("GetByID", ctx, customerID).
			Return(&domain.Customer{ID: customerID, FullName: "Yasmina"}, nil)
		f.resRepo.On("ListActiveByCar", ctx, carID).Return([]domain.Reservation{*rs, *next}, nil)
		f.resRepo.On("Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3)).Return(nil)
		f.carRepo.On("SyncOdometer", ctx, carID, int64(12000), domain.CarStatusRented, mock.AnythingOfType("time.Time")).Return(nil)

		got, err := f.svc.DeliverCar(ctx, testActor, rs.ID, DeliverCarInput{
			RequestID:      "req-4",
			OdometerStart:  12000,
			FuelLevelStart: 80,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusOngoing, got.Status)
	})
}

func TestReservationService_ReturnCar(t *testing.T) {
	ctx := context.Background()
	carID := uuid.New()
	customerID := uuid.New()

	t.Run("Completes, syncs the car and issues the invoice", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		odoStart := int64(12000)
		fuel := domain.FuelLevel(80)
		deliveredAt := day(1)
		rs.Status = domain.ReservationStatusOngoing
		rs.OdometerStart = &odoStart
		rs.FuelLevelStart = &fuel
		rs.DeliveredAt = &deliveredAt

		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.resRepo.On("Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3)).Return(nil)
		f.carRepo.On("SyncOdometer", ctx, carID, int64(12450), domain.CarStatusAvailable, mock.AnythingOfType("time.Time")).Return(nil)
		f.invoiceRepo.On("Create", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil)
		f.noteRepo.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
		f.customerRepo.On("GetByID", ctx, customerID).
			Return(&domain.Customer{ID: customerID, FullName: "Yasmina", Email: "y@test.com"}, nil)
		f.emailSvc.On("SendReservationCompleted", ctx, "y@test.com", "Yasmina", rs.ID, mock.Anything, "MAD").Return(nil)
		f.emailSvc.On("SendInvoiceIssued", ctx, "y@test.com", "Yasmina", mock.Anything, mock.Anything, "MAD").Return(nil)

		got, err := f.svc.ReturnCar(ctx, testActor, rs.ID, ReturnCarInput{
			RequestID:    "req-5",
			OdometerEnd:  12450,
			FuelLevelEnd: 40,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCompleted, got.Status)
		f.invoiceRepo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("Late return surcharge lands in the final price and the invoice", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		odoStart := int64(12000)
		fuel := domain.FuelLevel(80)
		rs.Status = domain.ReservationStatusOngoing
		rs.OdometerStart = &odoStart
		rs.FuelLevelStart = &fuel

		var issued *domain.Invoice
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.resRepo.On("Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3)).Return(nil)
		f.resRepo.On("AddPriceChange", ctx, mock.AnythingOfType("*domain.PriceChange")).Return(nil)
		f.carRepo.On("SyncOdometer", ctx, carID, int64(12450), domain.CarStatusAvailable, mock.AnythingOfType("time.Time")).Return(nil)
		f.invoiceRepo.On("Create", ctx, mock.AnythingOfType("*domain.Invoice")).
			Run(func(args mock.Arguments) { issued = args.Get(1).(*domain.Invoice) }).Return(nil)
		f.noteRepo.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
		f.customerRepo.On("GetByID", ctx, customerID).
			Return(&domain.Customer{ID: customerID, FullName: "Yasmina"}, nil)

		got, err := f.svc.ReturnCar(ctx, testActor, rs.ID, ReturnCarInput{
			OdometerEnd:             12450,
			FuelLevelEnd:            40,
			AdditionalCharges:       domain.MustMoney("200.00"),
			AdditionalChargesReason: "late return",
		})
		assert.NoError(t, err)
		assert.True(t, got.FinalPrice.Equal(domain.MustMoney("1600.00")))
		assert.NotNil(t, issued)
		assert.True(t, issued.Amount.Equal(domain.MustMoney("1600.00")))
	})
}

func TestReservationService_Cancel(t *testing.T) {
	ctx := context.Background()
	carID := uuid.New()
	customerID := uuid.New()

	t.Run("Ongoing cancellation releases the car", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		rs.Status = domain.ReservationStatusOngoing
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)
		f.resRepo.On("Save", ctx, mock.AnythingOfType("*domain.Reservation"), int64(3)).Return(nil)
		f.carRepo.On("UpdateStatus", ctx, carID, domain.CarStatusAvailable).Return(nil)
		f.noteRepo.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
		f.customerRepo.On("GetByID", ctx, customerID).
			Return(&domain.Customer{ID: customerID, FullName: "Yasmina", Email: "y@test.com"}, nil)
		f.emailSvc.On("SendReservationCancelled", ctx, "y@test.com", "Yasmina", "accident").Return(nil)

		got, err := f.svc.Cancel(ctx, testActor, rs.ID, CancelInput{RequestID: "req-6", Reason: "accident"})
		assert.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusCancelled, got.Status)
		f.carRepo.AssertCalled(t, "UpdateStatus", ctx, carID, domain.CarStatusAvailable)
	})

	t.Run("Completed reservation cannot be cancelled", func(t *testing.T) {
		f := newReservationFixture()
		rs := reservedFixture(carID, customerID)
		rs.Status = domain.ReservationStatusCompleted
		f.resRepo.On("GetByID", ctx, rs.ID).Return(rs, nil)

		_, err := f.svc.Cancel(ctx, testActor, rs.ID, CancelInput{Reason: "too late"})
		assert.True(t, errors.Is(err, domain.ErrIllegalTransition))
	})
}

func TestReservationService_FindAvailableCars(t *testing.T) {
	ctx := context.Background()
	busyCar := uuid.New()
	freeCar := uuid.New()

	t.Run("Filters out busy cars", func(t *testing.T) {
		f := newReservationFixture()
		f.carRepo.On("List", ctx).Return([]domain.Car{{ID: busyCar}, {ID: freeCar}}, nil)
		f.resRepo.On("FindBusyCarIDs", ctx, day(1), day(5), uuid.Nil).Return([]uuid.UUID{busyCar}, nil)

		cars, err := f.svc.FindAvailableCars(ctx, day(1), day(5), uuid.Nil)
		assert.NoError(t, err)
		assert.Len(t, cars, 1)
		assert.Equal(t, freeCar, cars[0].ID)
	})

	t.Run("Invalid range rejected", func(t *testing.T) {
		f := newReservationFixture()
		_, err := f.svc.FindAvailableCars(ctx, day(5), day(1), uuid.Nil)
		assert.True(t, errors.Is(err, domain.ErrInvalidRange))
	})
}

func TestReservationService_MarkOverdue(t *testing.T) {
	ctx := context.Background()
	asOf := day(20)

	t.Run("Flags each overdue reservation once", func(t *testing.T) {
		f := newReservationFixture()
		first := reservedFixture(uuid.New(), uuid.New())
		first.Status = domain.ReservationStatusOngoing
		second := reservedFixture(uuid.New(), uuid.New())
		second.Status = domain.ReservationStatusOngoing

		f.resRepo.On("ListOverdue", ctx, asOf).Return([]domain.Reservation{*first, *second}, nil)
		f.noteRepo.On("ListByReservation", ctx, first.ID).Return([]domain.Notification{}, nil)
		f.noteRepo.On("ListByReservation", ctx, second.ID).
			Return([]domain.Notification{{Type: domain.NotificationReservationOverdue}}, nil)
		f.noteRepo.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
		f.customerRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).
			Return(&domain.Customer{FullName: "Karim", Email: "k@test.com"}, nil)
		f.emailSvc.On("SendReservationOverdue", ctx, "k@test.com", "Karim", first.ID, first.EndDate).Return(nil)

		count, err := f.svc.MarkOverdue(ctx, asOf)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
		f.noteRepo.AssertNumberOfCalls(t, "Create", 1)
	})
}
