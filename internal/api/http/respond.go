package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes.
// Conflicts (version races, double bookings, duplicate invoices, closed
// invoices) are 409 so clients know to reload and retry.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConcurrentModification),
		errors.Is(err, domain.ErrVehicleUnavailable),
		errors.Is(err, domain.ErrDuplicateInvoice),
		errors.Is(err, domain.ErrInvoiceClosed):
		status = http.StatusConflict
	case domain.IsClientError(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPersistence):
		status = http.StatusServiceUnavailable
	}
	if domain.IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	if status >= 500 {
		logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
