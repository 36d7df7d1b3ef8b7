package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type paymentService struct {
	reservationRepo repository.ReservationRepository
	txRepo          repository.TransactionRepository
	paymentRepo     repository.PaymentRepository
	opts            LifecycleOptions
}

func NewPaymentService(
	reservationRepo repository.ReservationRepository,
	txRepo repository.TransactionRepository,
	paymentRepo repository.PaymentRepository,
	opts LifecycleOptions,
) PaymentService {
	return &paymentService{
		reservationRepo: reservationRepo,
		txRepo:          txRepo,
		paymentRepo:     paymentRepo,
		opts:            opts.withDefaults(),
	}
}

func (s *paymentService) EnsureRecords(ctx context.Context, r *domain.Reservation) (bool, bool, error) {
	logger.EnterMethod("paymentService.EnsureRecords", "reservationID", r.ID)

	var createdTx, createdPayment bool
	var errs []error

	if err := s.ensureTransaction(ctx, r); err != nil {
		if !errors.Is(err, errAlreadyExists) {
			errs = append(errs, &domain.PropagationFailure{Store: domain.StoreLedger, ReservationID: r.ID, Err: err})
		}
	} else {
		createdTx = true
	}

	if err := s.ensurePaymentRecord(ctx, r); err != nil {
		if !errors.Is(err, errAlreadyExists) {
			errs = append(errs, &domain.PropagationFailure{Store: domain.StorePayment, ReservationID: r.ID, Err: err})
		}
	} else {
		createdPayment = true
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.ExitMethodWithError("paymentService.EnsureRecords", err, "reservationID", r.ID)
	} else {
		logger.ExitMethod("paymentService.EnsureRecords", "reservationID", r.ID, "createdTransaction", createdTx, "createdPayment", createdPayment)
	}
	return createdTx, createdPayment, err
}

var errAlreadyExists = errors.New("already exists")

// collectFailures flattens an EnsureRecords error into its propagation
// failures. Unrecognised errors are attributed to fallback.
func collectFailures(err error, reservationID string, fallback domain.Store) []*domain.PropagationFailure {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*domain.PropagationFailure
		for _, e := range joined.Unwrap() {
			out = append(out, collectFailures(e, reservationID, fallback)...)
		}
		return out
	}
	var f *domain.PropagationFailure
	if errors.As(err, &f) {
		return []*domain.PropagationFailure{f}
	}
	return []*domain.PropagationFailure{{Store: fallback, ReservationID: reservationID, Err: err}}
}

func (s *paymentService) ensureTransaction(ctx context.Context, r *domain.Reservation) error {
	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	txs, err := s.txRepo.ListByReservation(sctx, r.ID)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.Type == domain.TransactionTypePayment {
			return errAlreadyExists
		}
	}

	resID := r.ID
	return s.txRepo.Create(sctx, &domain.Transaction{
		ID:            uuid.NewString(),
		RenterID:      r.RenterID,
		ReservationID: &resID,
		Type:          domain.TransactionTypePayment,
		AmountCents:   r.TotalPriceCents,
		Status:        domain.TransactionStatusPending,
		Description:   fmt.Sprintf("Rental payment for reservation %s (%s to %s)", r.ID, r.StartDate, r.EndDate),
		Date:          s.opts.Now(),
	})
}

func (s *paymentService) ensurePaymentRecord(ctx context.Context, r *domain.Reservation) error {
	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	records, err := s.paymentRepo.ListByReservation(sctx, r.ID)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		return errAlreadyExists
	}

	return s.paymentRepo.Create(sctx, &domain.PaymentRecord{
		ID:            uuid.NewString(),
		ReservationID: r.ID,
		RenterID:      r.RenterID,
		AmountCents:   r.TotalPriceCents,
		Currency:      s.opts.Currency,
		Status:        domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodCash,
		Metadata: domain.PaymentBreakdown{
			UnitID:         r.UnitID,
			StartDate:      r.StartDate,
			EndDate:        r.EndDate,
			RentalDays:     r.RentalDays,
			DailyRateCents: r.DailyRateCents,
			SubtotalCents:  r.SubtotalCents,
			DepositCents:   r.DepositCents,
			CustomerName:   r.CustomerName,
			CustomerEmail:  r.CustomerEmail,
		},
	})
}

// SyncStatus applies the event's status mapping to the ledger and the
// payment record independently. Side failures are reported in the result,
// never as the returned error.
func (s *paymentService) SyncStatus(ctx context.Context, reservationID string, event domain.LifecycleEvent) (*domain.SyncResult, error) {
	if !event.IsValid() {
		return nil, domain.NewValidationError("event", fmt.Sprintf("unknown lifecycle event %q", event))
	}
	logger.EnterMethod("paymentService.SyncStatus", "reservationID", reservationID, "event", event)

	result := &domain.SyncResult{ReservationID: reservationID, Event: event}
	ledgerTo, ledgerFrom := event.LedgerTarget()
	paymentTo, paymentFrom := event.PaymentTarget()

	var g errgroup.Group
	g.Go(func() error {
		sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
		defer cancel()
		result.Ledger.Updated, result.Ledger.Err = s.txRepo.UpdatePaymentStatus(sctx, reservationID, ledgerTo, ledgerFrom)
		return nil
	})
	g.Go(func() error {
		sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
		defer cancel()
		result.Payment.Updated, result.Payment.Err = s.paymentRepo.UpdateCashStatus(sctx, reservationID, paymentTo, paymentFrom)
		return nil
	})
	_ = g.Wait()

	for _, f := range result.Failures() {
		logger.Error("Payment sync side failed", "store", f.Store, "reservation_id", reservationID, "event", event, "error", f.Err)
	}
	logger.ExitMethod("paymentService.SyncStatus", "reservationID", reservationID,
		"ledgerUpdated", result.Ledger.Updated, "paymentUpdated", result.Payment.Updated)
	return result, nil
}

func (s *paymentService) MarkPaid(ctx context.Context, reservationID string) (*domain.SyncResult, error) {
	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	r, err := s.reservationRepo.GetByID(sctx, reservationID)
	cancel()
	if err != nil {
		return nil, err
	}
	if r.Status == domain.ReservationStatusCancelled {
		return nil, domain.NewValidationError("reservation_id", "cannot mark a cancelled reservation as paid")
	}
	return s.SyncStatus(ctx, reservationID, domain.EventMarkedPaid)
}

func (s *paymentService) Refund(ctx context.Context, paymentID string, amountCents int64, reason string) (*domain.PaymentRecord, error) {
	logger.EnterMethod("paymentService.Refund", "paymentID", paymentID, "amountCents", amountCents)

	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	p, err := s.paymentRepo.GetByID(sctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PaymentStatusSucceeded {
		return nil, domain.NewValidationError("payment_id", fmt.Sprintf("only succeeded payments can be refunded, payment is %s", p.Status))
	}
	if amountCents <= 0 {
		return nil, domain.NewValidationError("amount", "refund amount must be positive")
	}
	if amountCents > p.AmountCents {
		return nil, domain.NewValidationError("amount", fmt.Sprintf("refund amount %d exceeds payment amount %d", amountCents, p.AmountCents))
	}

	status := domain.PaymentStatusPartiallyRefunded
	if amountCents == p.AmountCents {
		status = domain.PaymentStatusRefunded
	}

	applied, err := s.paymentRepo.ApplyRefund(sctx, paymentID, status, amountCents, reason)
	if err != nil {
		logger.ExitMethodWithError("paymentService.Refund", err, "paymentID", paymentID)
		return nil, err
	}
	if !applied {
		return nil, domain.NewValidationError("payment_id", "payment is no longer refundable")
	}
	p.Status = status
	p.RefundAmountCents = amountCents
	p.RefundReason = reason

	// The payment record is the authority for refunds; the ledger entry
	// only keeps reporting in step.
	resID := p.ReservationID
	refundTx := &domain.Transaction{
		ID:            uuid.NewString(),
		RenterID:      p.RenterID,
		ReservationID: &resID,
		Type:          domain.TransactionTypeRefund,
		AmountCents:   amountCents,
		Status:        domain.TransactionStatusCompleted,
		Description:   fmt.Sprintf("Refund: %s", reason),
		Date:          s.opts.Now(),
	}
	lctx, lcancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	defer lcancel()
	if err := s.txRepo.Create(lctx, refundTx); err != nil {
		logger.Error("Refund ledger entry failed", "store", domain.StoreLedger, "reservation_id", p.ReservationID, "paymentID", paymentID, "error", err)
	}

	logger.ExitMethod("paymentService.Refund", "paymentID", paymentID, "status", status)
	return p, nil
}

func (s *paymentService) ListTransactions(ctx context.Context, reservationID string) ([]domain.Transaction, error) {
	return s.txRepo.ListByReservation(ctx, reservationID)
}

func (s *paymentService) ListPayments(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error) {
	return s.paymentRepo.ListByReservation(ctx, reservationID)
}

func (s *paymentService) LedgerSummary(ctx context.Context, since time.Time) (*domain.LedgerSummary, error) {
	return s.txRepo.Summary(ctx, since)
}
