package jobs

import (
	"context"
	"time"

	"rentify-backend/internal/logger"
)

// SendUnpaidInvoiceReminders emails customers whose invoices are past
// the configured grace period and still carry an outstanding balance.
func (jr *JobRunner) SendUnpaidInvoiceReminders() {
	jr.runWithRecovery("SendUnpaidInvoiceReminders", func() {
		ctx := context.Background()

		cutoff := time.Now().UTC().AddDate(0, 0, -jr.config.Billing.UnpaidReminderAfterDays)
		sent, err := jr.services.Invoice.SendUnpaidReminders(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to send unpaid invoice reminders", "error", err)
			return
		}
		logger.Info("Sent unpaid invoice reminders", "count", sent, "issued_before", cutoff.Format("2006-01-02"))
	})
}
