package jobs

import (
	"context"
	"time"

	"rentify-backend/internal/logger"
)

// MarkOverdueReservations flags Ongoing reservations that are past their
// end date so staff can chase the return.
func (jr *JobRunner) MarkOverdueReservations() {
	jr.runWithRecovery("MarkOverdueReservations", func() {
		ctx := context.Background()

		count, err := jr.services.Reservation.MarkOverdue(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to mark overdue reservations", "error", err)
			return
		}
		logger.Info("Marked reservations as overdue", "count", count)
	})
}
