package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCash              PaymentMethod = "Cash"
	PaymentMethodCheck             PaymentMethod = "Check"
	PaymentMethodCreditCard        PaymentMethod = "CreditCard"
	PaymentMethodBankTransfer      PaymentMethod = "BankTransfer"
	PaymentMethodElectronicPayment PaymentMethod = "ElectronicPayment"
	PaymentMethodOther             PaymentMethod = "Other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCreditCard,
		PaymentMethodBankTransfer, PaymentMethodElectronicPayment, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is a single money receipt applied against an invoice. Rows
// are append-only: refunds are modeled as reversal entries with a
// negative amount, never as mutation of the original row.
type Payment struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	Amount          Money
	Method          PaymentMethod
	ReferenceNumber string
	PaymentDate     time.Time
	Notes           string
	ReceivedBy      string
	CreatedAt       time.Time
}

// IsReversal reports whether this entry reverses an earlier payment.
func (p *Payment) IsReversal() bool {
	return p.Amount.IsNegative()
}

// Invoice is the billable record issued once per reservation. Amount is
// a snapshot of the reservation's final price at issue time; later price
// edits do not change it.
type Invoice struct {
	ID            uuid.UUID
	ReservationID uuid.UUID
	Amount        Money
	Currency      string
	IssuedAt      time.Time

	// Payments are loaded with the invoice; paid state is always derived
	// from them, never stored as independent truth.
	Payments []Payment
}

// AmountPaid is the sum over all payment rows, reversals included. It is
// recomputed from the list on every call so concurrent appends cannot
// lose updates through a stale running total.
func (i *Invoice) AmountPaid() Money {
	total := ZeroMoney()
	for _, p := range i.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Outstanding is amount minus payments. Negative means overpayment; the
// value is preserved, not clamped, so callers can surface a warning.
func (i *Invoice) Outstanding() Money {
	return i.Amount.Sub(i.AmountPaid())
}

// IsPaid is derived: an invoice is paid when nothing is outstanding.
func (i *Invoice) IsPaid() bool {
	return !i.Outstanding().IsPositive()
}

// ValidatePayment checks a candidate payment before it is appended.
func ValidatePayment(amount Money, method PaymentMethod, referenceNumber string) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !method.Valid() {
		return &ValidationError{Field: "method", Reason: "unrecognized payment method"}
	}
	if method == PaymentMethodCheck && referenceNumber == "" {
		return &ValidationError{Field: "referenceNumber", Reason: "required for check payments"}
	}
	return nil
}

// PriceChange is the audit record written whenever reservation pricing
// is edited.
type PriceChange struct {
	ID                   uuid.UUID
	ReservationID        uuid.UUID
	PreviousAgreedPrice  Money
	NewAgreedPrice       Money
	PreviousFinalPrice   Money
	NewFinalPrice        Money
	AdditionalFees       Money
	AdditionalFeesReason string
	Discount             Money
	DiscountReason       string
	ChangedAt            time.Time
	ChangedBy            string
}
