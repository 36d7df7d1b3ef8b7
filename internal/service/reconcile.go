package service

import (
	"context"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"
)

// reconcileService re-derives the dependent stores from the reservation
// status, which is the ground truth.
type reconcileService struct {
	reservationRepo repository.ReservationRepository
	availability    AvailabilityService
	payments        PaymentService
	timeout         time.Duration
}

func NewReconcileService(reservationRepo repository.ReservationRepository, availability AvailabilityService, payments PaymentService, timeout time.Duration) ReconcileService {
	return &reconcileService{
		reservationRepo: reservationRepo,
		availability:    availability,
		payments:        payments,
		timeout:         timeout,
	}
}

func (s *reconcileService) ReconcileReservation(ctx context.Context, reservationID string) (*domain.ReconcileReport, error) {
	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	r, err := s.reservationRepo.GetByID(sctx, reservationID)
	cancel()
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, r)
}

func (s *reconcileService) reconcile(ctx context.Context, r *domain.Reservation) (*domain.ReconcileReport, error) {
	logger.EnterMethod("reconcileService.reconcile", "reservationID", r.ID, "status", r.Status)
	report := &domain.ReconcileReport{ReservationID: r.ID, Status: r.Status}

	event, err := domain.EventForStatus(r.Status)
	if err != nil {
		return nil, err
	}

	createdTx, createdPayment, err := s.payments.EnsureRecords(ctx, r)
	report.CreatedTransaction = createdTx
	report.CreatedPayment = createdPayment
	report.Failures = append(report.Failures, collectFailures(err, r.ID, domain.StoreLedger)...)

	sync, err := s.payments.SyncStatus(ctx, r.ID, event)
	if err != nil {
		return nil, err
	}
	report.Sync = sync
	report.Failures = append(report.Failures, sync.Failures()...)

	before, after, err := s.availability.Converge(ctx, r.UnitID)
	report.AvailabilityBefore = before
	report.AvailabilityAfter = after
	if err != nil {
		report.Failures = append(report.Failures, &domain.PropagationFailure{Store: domain.StoreAvailability, ReservationID: r.ID, Err: err})
	}

	for _, f := range report.Failures {
		logger.Error("Reconciliation step failed", "store", f.Store, "reservation_id", r.ID, "error", f.Err)
	}
	logger.ExitMethod("reconcileService.reconcile", "reservationID", r.ID,
		"createdTransaction", createdTx, "createdPayment", createdPayment,
		"ledgerUpdated", sync.Ledger.Updated, "paymentUpdated", sync.Payment.Updated,
		"availabilityBefore", before, "availabilityAfter", after)
	return report, nil
}

func (s *reconcileService) ReconcileRecent(ctx context.Context, since time.Time) ([]*domain.ReconcileReport, error) {
	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	reservations, err := s.reservationRepo.ListUpdatedSince(sctx, since)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations updated since %s: %w", since.Format(time.RFC3339), err)
	}

	reports := make([]*domain.ReconcileReport, 0, len(reservations))
	for i := range reservations {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.reconcile(ctx, &reservations[i])
		if err != nil {
			logger.Error("Failed to reconcile reservation", "reservation_id", reservations[i].ID, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
