package http

import (
	"encoding/json"
	"net/http"
	"time"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/service"
)

// InvoiceHandler exposes the billing ledger over HTTP.
type InvoiceHandler struct {
	svc service.InvoiceService
}

func NewInvoiceHandler(svc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	reservationID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	inv, err := h.svc.Generate(r.Context(), actor, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceView(inv))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid invoice id")
		return
	}
	inv, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceView(inv))
}

func (h *InvoiceHandler) GetByReservation(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid reservation id")
		return
	}
	inv, err := h.svc.GetByReservation(r.Context(), reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceView(inv))
}

type addPaymentRequest struct {
	Amount          domain.Money `json:"amount"`
	Method          string       `json:"method"`
	ReferenceNumber string       `json:"referenceNumber"`
	PaymentDate     *time.Time   `json:"paymentDate"`
	Notes           string       `json:"notes"`
}

type paymentResultResponse struct {
	Invoice            invoiceView `json:"invoice"`
	Payment            paymentView `json:"payment"`
	OverpaymentWarning bool        `json:"overpaymentWarning"`
}

func (h *InvoiceHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	invoiceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid invoice id")
		return
	}
	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	in := service.AddPaymentInput{
		RequestID:       requestIDFrom(r),
		Amount:          req.Amount,
		Method:          domain.PaymentMethod(req.Method),
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	if req.PaymentDate != nil {
		in.PaymentDate = *req.PaymentDate
	}
	res, err := h.svc.AddPayment(r.Context(), actor, invoiceID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResultResponse{
		Invoice:            toInvoiceView(res.Invoice),
		Payment:            toPaymentView(res.Payment),
		OverpaymentWarning: res.OverpaymentWarning,
	})
}

type refundPaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *InvoiceHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeBadRequest(w, "X-User-ID header is required")
		return
	}
	invoiceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid invoice id")
		return
	}
	paymentID, ok := pathID(r, "paymentId")
	if !ok {
		writeBadRequest(w, "invalid payment id")
		return
	}
	var req refundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.RefundPayment(r.Context(), actor, invoiceID, paymentID, requestIDFrom(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResultResponse{
		Invoice:            toInvoiceView(res.Invoice),
		Payment:            toPaymentView(res.Payment),
		OverpaymentWarning: res.OverpaymentWarning,
	})
}
