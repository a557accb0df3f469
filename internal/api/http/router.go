// Package http wires the reservation and billing services onto a
// gorilla/mux router. The acting user arrives in X-User-ID, the
// idempotency key for mutations in X-Request-ID.
package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentify-backend/internal/service"
)

func NewRouter(
	reservationSvc service.ReservationService,
	invoiceSvc service.InvoiceService,
	notificationSvc service.NotificationService,
) *mux.Router {
	rh := NewReservationHandler(reservationSvc, notificationSvc)
	ih := NewInvoiceHandler(invoiceSvc)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/reservations", rh.Create).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}", rh.Get).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}/dates", rh.ChangeDates).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id}/car", rh.ChangeCar).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id}/prices", rh.ChangePrices).Methods(http.MethodPut)
	api.HandleFunc("/reservations/{id}/deliver", rh.DeliverCar).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/return", rh.ReturnCar).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/cancel", rh.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/notifications", rh.ListNotifications).Methods(http.MethodGet)

	api.HandleFunc("/reservations/{id}/invoice", ih.Generate).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/invoice", ih.GetByReservation).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", ih.Get).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/payments", ih.AddPayment).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}/payments/{paymentId}/refund", ih.RefundPayment).Methods(http.MethodPost)

	api.HandleFunc("/cars/available", rh.FindAvailableCars).Methods(http.MethodGet)
	api.HandleFunc("/cars/{carId}/reservations", rh.ListByCar).Methods(http.MethodGet)
	api.HandleFunc("/cars/{carId}/reservations/current", rh.CurrentForCar).Methods(http.MethodGet)
	api.HandleFunc("/cars/{carId}/reservations/upcoming", rh.UpcomingForCar).Methods(http.MethodGet)
	api.HandleFunc("/customers/{customerId}/reservations", rh.ListByCustomer).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return r
}
