package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
type ReservationHandler struct {
	svc     service.ReservationService
	noteSvc service.NotificationService
}

func NewReservationHandler(svc service.ReservationService, noteSvc service.NotificationService) *ReservationHandler {
	return &ReservationHandler{svc: svc, noteSvc: noteSvc}
}

// actorFrom reads the acting user from headers. There is no ambient
// identity; every mutation names who performed it.
func actorFrom(r *http.Request) (domain.Actor, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: userID, Name: r.Header.Get("X-User-Name")}, true
}

func requestIDFrom(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

type createReservationRequest struct {
	CarID                uuid.UUID     `json:"carId"`
	CustomerIDs          []uuid.UUID   `json:"customerIds"`
	StartDate            time.Time     `json:"startDate"`
	EndDate              time.Time     `json:"endDate"`
	PickupLocation       string        `json:"pickupLocation"`
	DropoffLocation      string        `json:"dropoffLocation"`
	AgreedPrice          *domain.Money `json:"agreedPrice"`
	AdditionalFees       domain.Money  `json:"additionalFees"`
	AdditionalFeesReason string        `json:"additionalFeesReason"`
	Discount             domain.Money  `json:"discount"`
	DiscountReason       string        `json:"discountReason"`
	DepositAmount        domain.Money  `json:"depositAmount"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	rs, err := h.svc.Create(r.Context(), actor, service.CreateReservationInput{
		RequestID:            requestIDFrom(r),
		CarID:                req.CarID,
		CustomerIDs:          req.CustomerIDs,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		PickupLocation:       req.PickupLocation,
		DropoffLocation:      req.DropoffLocation,
		AgreedPrice:          req.AgreedPrice,
		AdditionalFees:       req.AdditionalFees,
		AdditionalFeesReason: req.AdditionalFeesReason,
		Discount:             req.Discount,
		DiscountReason:       req.DiscountReason,
		DepositAmount:        req.DepositAmount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationView(rs))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	rs, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

func (h *ReservationHandler) ListByCar(w http.ResponseWriter, r *http.Request) {
	carID, ok := pathID(r, "carId")
	if !ok {
		writeBadRequest(w, "invalid car id")
		return
	}
	rs, err := h.svc.ListByCar(r.Context(), carID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationViews(rs))
}

func (h *ReservationHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(r, "customerId")
	if !ok {
		writeBadRequest(w, "invalid customer id")
		return
	}
	rs, err := h.svc.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationViews(rs))
}

// CurrentForCar returns the Ongoing reservation covering the car at the
// given instant (query param "at", default now).
func (h *ReservationHandler) CurrentForCar(w http.ResponseWriter, r *http.Request) {
	carID, ok := pathID(r, "carId")
	if !ok {
		writeBadRequest(w, "invalid car id")
		return
	}
	at := time.Now().UTC()
	if v := r.URL.Query().Get("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "invalid at: "+err.Error())
			return
		}
		at = parsed
	}
	rs, err := h.svc.CurrentForCar(r.Context(), carID, at)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

func (h *ReservationHandler) UpcomingForCar(w http.ResponseWriter, r *http.Request) {
	carID, ok := pathID(r, "carId")
	if !ok {
		writeBadRequest(w, "invalid car id")
		return
	}
	after := time.Now().UTC()
	if v := r.URL.Query().Get("after"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "invalid after: "+err.Error())
			return
		}
		after = parsed
	}
	rs, err := h.svc.UpcomingForCar(r.Context(), carID, after)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationViews(rs))
}

type changeDatesRequest struct {
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	ExpectedVersion int64     `json:"expectedVersion"`
}

func (h *ReservationHandler) ChangeDates(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	var req changeDatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	rs, err := h.svc.ChangeDates(r.Context(), actor, id, service.ChangeDatesInput{
		RequestID:       requestIDFrom(r),
		ExpectedVersion: req.ExpectedVersion,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

type changeCarRequest struct {
	CarID           uuid.UUID `json:"carId"`
	ExpectedVersion int64     `json:"expectedVersion"`
}

func (h *ReservationHandler) ChangeCar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	var req changeCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	rs, err := h.svc.ChangeCar(r.Context(), actor, id, service.ChangeCarInput{
		RequestID:       requestIDFrom(r),
		ExpectedVersion: req.ExpectedVersion,
		CarID:           req.CarID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

type changePricesRequest struct {
	AgreedPrice          *domain.Money `json:"agreedPrice"`
	PricePerDay          *domain.Money `json:"pricePerDay"`
	AdditionalFees       domain.Money  `json:"additionalFees"`
	AdditionalFeesReason string        `json:"additionalFeesReason"`
	Discount             domain.Money  `json:"discount"`
	DiscountReason       string        `json:"discountReason"`
	ExpectedVersion      int64         `json:"expectedVersion"`
}

func (h *ReservationHandler) ChangePrices(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	var req changePricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	rs, err := h.svc.ChangePrices(r.Context(), actor, id, service.ChangePricesInput{
		RequestID:            requestIDFrom(r),
		ExpectedVersion:      req.ExpectedVersion,
		AgreedPrice:          req.AgreedPrice,
		PricePerDay:          req.PricePerDay,
		AdditionalFees:       req.AdditionalFees,
		AdditionalFeesReason: req.AdditionalFeesReason,
		Discount:             req.Discount,
		DiscountReason:       req.DiscountReason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

type deliverCarRequest struct {
	OdometerStart        int64      `json:"odometerStart"`
	FuelLevelStart       int        `json:"fuelLevelStart"`
	DeliveredAt          *time.Time `json:"deliveredAt"`
	Notes                string     `json:"notes"`
	HasPreExistingDamage bool       `json:"hasPreExistingDamage"`
	DamageDescription    string     `json:"damageDescription"`
	ExpectedVersion      int64      `json:"expectedVersion"`
}

func (h *ReservationHandler) DeliverCar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	var req deliverCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	in := service.DeliverCarInput{
		RequestID:            requestIDFrom(r),
		ExpectedVersion:      req.ExpectedVersion,
		OdometerStart:        req.OdometerStart,
		FuelLevelStart:       domain.FuelLevel(req.FuelLevelStart),
		Notes:                req.Notes,
		HasPreExistingDamage: req.HasPreExistingDamage,
		DamageDescription:    req.DamageDescription,
	}
	if req.DeliveredAt != nil {
		in.DeliveredAt = *req.DeliveredAt
	}
	rs, err := h.svc.DeliverCar(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

type returnCarRequest struct {
	OdometerEnd             int64        `json:"odometerEnd"`
	FuelLevelEnd            int          `json:"fuelLevelEnd"`
	ReturnedAt              *time.Time   `json:"returnedAt"`
	Notes                   string       `json:"notes"`
	HasDamage               bool         `json:"hasDamage"`
	DamageDescription       string       `json:"damageDescription"`
	AdditionalCharges       domain.Money `json:"additionalCharges"`
	AdditionalChargesReason string       `json:"additionalChargesReason"`
	ExpectedVersion         int64        `json:"expectedVersion"`
}

func (h *ReservationHandler) ReturnCar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	var req returnCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	in := service.ReturnCarInput{
		RequestID:               requestIDFrom(r),
		ExpectedVersion:         req.ExpectedVersion,
		OdometerEnd:             req.OdometerEnd,
		FuelLevelEnd:            domain.FuelLevel(req.FuelLevelEnd),
		Notes:                   req.Notes,
		HasDamage:               req.HasDamage,
		DamageDescription:       req.DamageDescription,
		AdditionalCharges:       req.AdditionalCharges,
		AdditionalChargesReason: req.AdditionalChargesReason,
	}
	if req.ReturnedAt != nil {
		in.ReturnedAt = *req.ReturnedAt
	}
	rs, err := h.svc.ReturnCar(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

type cancelRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	rs, err := h.svc.Cancel(r.Context(), actor, id, service.CancelInput{
		RequestID:       requestIDFrom(r),
		ExpectedVersion: req.ExpectedVersion,
		Reason:          req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationView(rs))
}

func (h *ReservationHandler) FindAvailableCars(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeBadRequest(w, "invalid start: "+err.Error())
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeBadRequest(w, "invalid end: "+err.Error())
		return
	}
	exclude := uuid.Nil
	if v := q.Get("excludeReservationId"); v != "" {
		exclude, err = uuid.Parse(v)
		if err != nil {
			writeBadRequest(w, "invalid excludeReservationId")
			return
		}
	}
	cars, err := h.svc.FindAvailableCars(r.Context(), start, end, exclude)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCarViews(cars))
}

func (h *ReservationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	ns, err := h.noteSvc.ListByReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationViews(ns))
}
