package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"rentify-backend/internal/domain"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"Not found", &domain.NotFoundError{Entity: "reservation", ID: uuid.New()}, http.StatusNotFound},
		{"Version conflict", &domain.ConcurrentModificationError{ReservationID: uuid.New(), ExpectedVersion: 2}, http.StatusConflict},
		{"Double booking", &domain.VehicleUnavailableError{CarID: uuid.New()}, http.StatusConflict},
		{"Duplicate invoice", &domain.DuplicateInvoiceError{ReservationID: uuid.New()}, http.StatusConflict},
		{"Closed invoice", &domain.InvoiceClosedError{InvoiceID: uuid.New(), ReservationStatus: domain.ReservationStatusCancelled}, http.StatusConflict},
		{"Validation", &domain.ValidationError{Field: "amount", Reason: "must be positive"}, http.StatusBadRequest},
		{"Invalid range", &domain.InvalidRangeError{}, http.StatusBadRequest},
		{"Illegal transition", &domain.IllegalTransitionError{From: domain.ReservationStatusCompleted, To: domain.ReservationStatusOngoing}, http.StatusBadRequest},
		{"Locked edit", &domain.EditLockedError{Status: domain.ReservationStatusOngoing, Edit: "pricing"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	t.Run("Version conflict carries a retry hint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, &domain.ConcurrentModificationError{ReservationID: uuid.New(), ExpectedVersion: 2})
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("Double booking does not", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeError(rec, &domain.VehicleUnavailableError{CarID: uuid.New()})
		assert.Empty(t, rec.Header().Get("Retry-After"))
	})
}
