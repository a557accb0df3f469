package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationReservationCompleted NotificationType = "RESERVATION_COMPLETED"
	NotificationReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotificationReservationOverdue   NotificationType = "RESERVATION_OVERDUE"
	NotificationInvoiceGenerated     NotificationType = "INVOICE_GENERATED"
	NotificationInvoiceUnpaid        NotificationType = "INVOICE_UNPAID"
	NotificationPaymentReceived      NotificationType = "PAYMENT_RECEIVED"
)

// Notification is an event record emitted after lifecycle transitions.
// Delivery (email, printing, push) is an external concern outside the
// consistency boundary; failures to deliver never roll back a transition.
type Notification struct {
	ID            uuid.UUID
	Type          NotificationType
	ReservationID uuid.UUID
	Title         string
	Message       string
	Attributes    map[string]string
	CreatedAt     time.Time
}
