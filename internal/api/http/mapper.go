package http

import (
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
)

type reservationView struct {
	ID              uuid.UUID   `json:"id"`
	CarID           uuid.UUID   `json:"carId"`
	CustomerIDs     []uuid.UUID `json:"customerIds"`
	Status          string      `json:"status"`
	StartDate       time.Time   `json:"startDate"`
	EndDate         time.Time   `json:"endDate"`
	PickupLocation  string      `json:"pickupLocation,omitempty"`
	DropoffLocation string      `json:"dropoffLocation,omitempty"`

	PricePerDay          domain.Money `json:"pricePerDay"`
	AgreedPrice          domain.Money `json:"agreedPrice"`
	AdditionalFees       domain.Money `json:"additionalFees"`
	AdditionalFeesReason string       `json:"additionalFeesReason,omitempty"`
	Discount             domain.Money `json:"discount"`
	DiscountReason       string       `json:"discountReason,omitempty"`
	FinalPrice           domain.Money `json:"finalPrice"`
	DepositAmount        domain.Money `json:"depositAmount"`

	OdometerStart        *int64     `json:"odometerStart,omitempty"`
	FuelLevelStart       *int       `json:"fuelLevelStart,omitempty"`
	DeliveredAt          *time.Time `json:"deliveredAt,omitempty"`
	DeliveredBy          string     `json:"deliveredBy,omitempty"`
	DeliveryNotes        string     `json:"deliveryNotes,omitempty"`
	HasPreExistingDamage bool       `json:"hasPreExistingDamage"`
	PreDamageDescription string     `json:"preDamageDescription,omitempty"`

	OdometerEnd       *int64     `json:"odometerEnd,omitempty"`
	FuelLevelEnd      *int       `json:"fuelLevelEnd,omitempty"`
	ReturnedAt        *time.Time `json:"returnedAt,omitempty"`
	ReturnedBy        string     `json:"returnedBy,omitempty"`
	ReturnNotes       string     `json:"returnNotes,omitempty"`
	HasDamage         bool       `json:"hasDamage"`
	DamageDescription string     `json:"damageDescription,omitempty"`

	CancellationReason string     `json:"cancellationReason,omitempty"`
	CanceledAt         *time.Time `json:"canceledAt,omitempty"`
	CanceledBy         string     `json:"canceledBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"version"`
}

func fuelView(f *domain.FuelLevel) *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func toReservationView(r *domain.Reservation) reservationView {
	return reservationView{
		ID:                   r.ID,
		CarID:                r.CarID,
		CustomerIDs:          r.CustomerIDs,
		Status:               string(r.Status),
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		PickupLocation:       r.PickupLocation,
		DropoffLocation:      r.DropoffLocation,
		PricePerDay:          r.PricePerDay,
		AgreedPrice:          r.AgreedPrice,
		AdditionalFees:       r.AdditionalFees,
		AdditionalFeesReason: r.AdditionalFeesReason,
		Discount:             r.Discount,
		DiscountReason:       r.DiscountReason,
		FinalPrice:           r.FinalPrice,
		DepositAmount:        r.DepositAmount,
		OdometerStart:        r.OdometerStart,
		FuelLevelStart:       fuelView(r.FuelLevelStart),
		DeliveredAt:          r.DeliveredAt,
		DeliveredBy:          r.DeliveredBy,
		DeliveryNotes:        r.DeliveryNotes,
		HasPreExistingDamage: r.HasPreExistingDamage,
		PreDamageDescription: r.PreDamageDescription,
		OdometerEnd:          r.OdometerEnd,
		FuelLevelEnd:         fuelView(r.FuelLevelEnd),
		ReturnedAt:           r.ReturnedAt,
		ReturnedBy:           r.ReturnedBy,
		ReturnNotes:          r.ReturnNotes,
		HasDamage:            r.HasDamage,
		DamageDescription:    r.DamageDescription,
		CancellationReason:   r.CancellationReason,
		CanceledAt:           r.CanceledAt,
		CanceledBy:           r.CanceledBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		Version:              r.Version,
	}
}

func toReservationViews(rs []domain.Reservation) []reservationView {
	out := make([]reservationView, 0, len(rs))
	for i := range rs {
		out = append(out, toReservationView(&rs[i]))
	}
	return out
}

type paymentView struct {
	ID              uuid.UUID    `json:"id"`
	InvoiceID       uuid.UUID    `json:"invoiceId"`
	Amount          domain.Money `json:"amount"`
	Method          string       `json:"method"`
	ReferenceNumber string       `json:"referenceNumber,omitempty"`
	PaymentDate     time.Time    `json:"paymentDate"`
	Notes           string       `json:"notes,omitempty"`
	ReceivedBy      string       `json:"receivedBy,omitempty"`
	IsReversal      bool         `json:"isReversal"`
}

func toPaymentView(p *domain.Payment) paymentView {
	return paymentView{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
		Method:          string(p.Method),
		ReferenceNumber: p.ReferenceNumber,
		PaymentDate:     p.PaymentDate,
		Notes:           p.Notes,
		ReceivedBy:      p.ReceivedBy,
		IsReversal:      p.IsReversal(),
	}
}

type invoiceView struct {
	ID            uuid.UUID     `json:"id"`
	ReservationID uuid.UUID     `json:"reservationId"`
	Amount        domain.Money  `json:"amount"`
	Currency      string        `json:"currency"`
	IssuedAt      time.Time     `json:"issuedAt"`
	AmountPaid    domain.Money  `json:"amountPaid"`
	Outstanding   domain.Money  `json:"outstanding"`
	IsPaid        bool          `json:"isPaid"`
	Payments      []paymentView `json:"payments"`
}

func toInvoiceView(inv *domain.Invoice) invoiceView {
	payments := make([]paymentView, 0, len(inv.Payments))
	for i := range inv.Payments {
		payments = append(payments, toPaymentView(&inv.Payments[i]))
	}
	return invoiceView{
		ID:            inv.ID,
		ReservationID: inv.ReservationID,
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		IssuedAt:      inv.IssuedAt,
		AmountPaid:    inv.AmountPaid(),
		Outstanding:   inv.Outstanding(),
		IsPaid:        inv.IsPaid(),
		Payments:      payments,
	}
}

type carView struct {
	ID           uuid.UUID    `json:"id"`
	LicensePlate string       `json:"licensePlate"`
	Model        string       `json:"model"`
	Status       string       `json:"status"`
	DailyRate    domain.Money `json:"dailyRate"`
	CurrentKM    int64        `json:"currentKm"`
}

func toCarViews(cars []domain.Car) []carView {
	out := make([]carView, 0, len(cars))
	for _, c := range cars {
		out = append(out, carView{
			ID:           c.ID,
			LicensePlate: c.LicensePlate,
			Model:        c.Model,
			Status:       string(c.Status),
			DailyRate:    c.DailyRate,
			CurrentKM:    c.CurrentKM,
		})
	}
	return out
}

type notificationView struct {
	ID            uuid.UUID         `json:"id"`
	Type          string            `json:"type"`
	ReservationID uuid.UUID         `json:"reservationId"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func toNotificationViews(ns []domain.Notification) []notificationView {
	out := make([]notificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationView{
			ID:            n.ID,
			Type:          string(n.Type),
			ReservationID: n.ReservationID,
			Title:         n.Title,
			Message:       n.Message,
			Attributes:    n.Attributes,
			CreatedAt:     n.CreatedAt,
		})
	}
	return out
}
