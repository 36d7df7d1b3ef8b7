package jobs

import (
	"context"

	"motorent-backend/internal/logger"
)

// ReconcileReservations replays the status mapping of every reservation
// touched within the lookback window, repairing ledger, payment record and
// unit availability drift left by failed propagation.
func (jr *JobRunner) ReconcileReservations() {
	jr.runWithRecovery("ReconcileReservations", func(ctx context.Context) error {
		since := jr.now().Add(-jr.config.Lifecycle.ReconcileWindow())
		reports, err := jr.services.Reconcile.ReconcileRecent(ctx, since)
		if err != nil {
			return err
		}

		var created, updated, converged, failed int
		for _, r := range reports {
			if r.CreatedTransaction || r.CreatedPayment {
				created++
			}
			if r.Sync != nil && (r.Sync.Ledger.Updated > 0 || r.Sync.Payment.Updated > 0) {
				updated++
			}
			if r.AvailabilityBefore != r.AvailabilityAfter {
				converged++
			}
			if len(r.Failures) > 0 {
				failed++
			}
		}
		logger.Info("Reconciled reservations",
			"since", since,
			"count", len(reports),
			"records_created", created,
			"statuses_updated", updated,
			"units_converged", converged,
			"still_failing", failed)
		return nil
	})
}

// SendReturnReminders warns renters whose confirmed rentals are due back
// today or already overdue.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", func(ctx context.Context) error {
		sent, err := jr.services.Reservation.RemindReturns(ctx, jr.now().UTC())
		if err != nil {
			return err
		}
		logger.Info("Sent return reminders", "count", sent)
		return nil
	})
}
