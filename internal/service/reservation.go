package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"
	"motorent-backend/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "motorent-backend/internal/service"

type reservationService struct {
	reservationRepo repository.ReservationRepository
	availability    AvailabilityService
	payments        PaymentService
	notifier        NotificationService
	licenses        LicenseVerifier
	opts            LifecycleOptions
	locks           *keyedMutex
	tracer          trace.Tracer
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	availability AvailabilityService,
	payments PaymentService,
	notifier NotificationService,
	licenses LicenseVerifier,
	opts LifecycleOptions,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		availability:    availability,
		payments:        payments,
		notifier:        notifier,
		licenses:        licenses,
		opts:            opts.withDefaults(),
		locks:           newKeyedMutex(),
		tracer:          otel.Tracer(tracerName),
	}
}

func (s *reservationService) Book(ctx context.Context, req BookingRequest) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.book", trace.WithAttributes(
		attribute.String("unit.id", req.UnitID),
		attribute.String("renter.id", req.RenterID),
	))
	defer span.End()
	logger.EnterMethod("reservationService.Book", "unitID", req.UnitID, "renterID", req.RenterID, "start", req.StartDate, "end", req.EndDate)

	r, err := s.book(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ExitMethodWithError("reservationService.Book", err, "unitID", req.UnitID, "renterID", req.RenterID)
		return nil, err
	}
	span.SetAttributes(attribute.String("reservation.id", r.ID))
	logger.ExitMethod("reservationService.Book", "reservationID", r.ID, "totalCents", r.TotalPriceCents)
	return r, nil
}

func (s *reservationService) book(ctx context.Context, req BookingRequest) (*domain.Reservation, error) {
	if strings.TrimSpace(req.UnitID) == "" {
		return nil, domain.NewValidationError("unit_id", "unit is required")
	}
	if strings.TrimSpace(req.RenterID) == "" {
		return nil, domain.NewValidationError("renter_id", "renter is required")
	}
	if req.PaymentMethod != "" && req.PaymentMethod != string(domain.PaymentMethodCash) {
		return nil, domain.NewValidationError("payment_method", "only cash payments are accepted")
	}

	window, err := utils.ParseWindow(req.StartDate, req.EndDate, req.PickupTime, req.ReturnTime)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateWindow(window, s.opts.Now()); err != nil {
		return nil, err
	}

	hasLicense, err := s.licenses.HasLicense(ctx, req.RenterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check license: %w", err)
	}
	if !hasLicense {
		return nil, domain.ErrLicenseMissing
	}

	unit, err := s.availability.GetUnit(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}
	if unit.Availability == domain.AvailabilityMaintenance {
		return nil, fmt.Errorf("%w: unit %s is in maintenance", domain.ErrUnitUnavailable, unit.ID)
	}

	cost := utils.CalculateWindowCost(window, unit.DailyRateCents, s.opts.DepositBasisPoints)
	if cost.TotalCents <= 0 {
		return nil, domain.NewValidationError("total_price", "total price must be positive")
	}

	r := &domain.Reservation{
		ID:               uuid.NewString(),
		RenterID:         req.RenterID,
		UnitID:           unit.ID,
		StartDate:        window.Start.Format(utils.DateLayout),
		EndDate:          window.End.Format(utils.DateLayout),
		PickupTime:       strings.TrimSpace(req.PickupTime),
		ReturnTime:       strings.TrimSpace(req.ReturnTime),
		DailyRateCents:   cost.DailyRateCents,
		RentalDays:       cost.Days,
		SubtotalCents:    cost.SubtotalCents,
		DepositCents:     cost.DepositCents,
		TotalPriceCents:  cost.TotalCents,
		Status:           domain.ReservationStatusPending,
		AdminNotes:       req.Notes,
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		PaymentMethod:    string(domain.PaymentMethodCash),
		PaymentReference: req.PaymentReference,
		PaymentProofURL:  req.PaymentProofURL,
	}

	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	err = s.reservationRepo.Create(sctx, r)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	// The reservation row is the commit point. Everything below is
	// best-effort and picked up by reconciliation when it fails.
	pctx := context.WithoutCancel(ctx)
	if _, _, err := s.payments.EnsureRecords(pctx, r); err != nil {
		for _, f := range collectFailures(err, r.ID, domain.StoreLedger) {
			logger.Error("Propagation failed", "store", f.Store, "reservation_id", r.ID, "error", f.Err)
		}
	}
	if err := s.notifier.Notify(pctx, bookedNotification(r), recipientOf(r)); err != nil {
		logger.Error("Propagation failed", "store", domain.StoreNotification, "reservation_id", r.ID, "error", err)
	}
	return r, nil
}

func (s *reservationService) Approve(ctx context.Context, reservationID, adminID string) (*domain.TransitionResult, error) {
	return s.transition(ctx, reservationID, domain.ActionApprove, domain.Actor{ID: adminID, Role: domain.ActorAdmin}, "")
}

func (s *reservationService) Reject(ctx context.Context, reservationID, adminID, reason string) (*domain.TransitionResult, error) {
	return s.transition(ctx, reservationID, domain.ActionReject, domain.Actor{ID: adminID, Role: domain.ActorAdmin}, reason)
}

func (s *reservationService) Complete(ctx context.Context, reservationID, adminID string) (*domain.TransitionResult, error) {
	return s.transition(ctx, reservationID, domain.ActionComplete, domain.Actor{ID: adminID, Role: domain.ActorAdmin}, "")
}

func (s *reservationService) Cancel(ctx context.Context, reservationID string, actor domain.Actor, reason string) (*domain.TransitionResult, error) {
	return s.transition(ctx, reservationID, domain.ActionCancel, actor, reason)
}

func (s *reservationService) transition(ctx context.Context, reservationID string, action domain.Action, actor domain.Actor, reason string) (*domain.TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "reservation."+string(action), trace.WithAttributes(
		attribute.String("reservation.id", reservationID),
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()
	method := "reservationService." + string(action)
	logger.EnterMethod(method, "reservationID", reservationID, "actorID", actor.ID, "actorRole", actor.Role)

	result, err := s.applyTransition(ctx, reservationID, action, actor, reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ExitMethodWithError(method, err, "reservationID", reservationID)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("reservation.from", string(result.Previous)),
		attribute.String("reservation.to", string(result.Reservation.Status)),
		attribute.Int("propagation.failures", len(result.Failures)),
	)
	for _, f := range result.Failures {
		span.AddEvent("propagation_failure", trace.WithAttributes(attribute.String("store", string(f.Store))))
		logger.Error("Propagation failed", "store", f.Store, "reservation_id", f.ReservationID, "action", action, "error", f.Err)
	}
	logger.ExitMethod(method, "reservationID", reservationID, "from", result.Previous, "to", result.Reservation.Status, "failures", len(result.Failures))
	return result, nil
}

func (s *reservationService) applyTransition(ctx context.Context, reservationID string, action domain.Action, actor domain.Actor, reason string) (*domain.TransitionResult, error) {
	unlock := s.locks.Lock(reservationID)
	defer unlock()

	r, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && r.RenterID != actor.ID {
		return nil, domain.ErrUnauthorized
	}

	from := r.Status
	to, ok := from.Next(action)
	if !ok {
		return nil, &domain.TransitionError{ReservationID: r.ID, From: from, Action: action}
	}

	// Approve takes the unit before committing so a lost race leaves the
	// reservation pending.
	if action == domain.ActionApprove {
		if err := s.availability.Lock(ctx, r.UnitID, r.ID); err != nil {
			return nil, err
		}
	}

	r.Status = to
	if reason != "" {
		r.CancelReason = reason
	}
	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	written, err := s.reservationRepo.UpdateStatus(sctx, r, from)
	cancel()
	if err != nil || !written {
		if action == domain.ActionApprove {
			s.undoLock(ctx, r)
		}
		if errors.Is(err, domain.ErrUnitUnavailable) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update reservation status: %w", err)
		}
		current := from
		if fresh, lerr := s.load(ctx, reservationID); lerr == nil {
			current = fresh.Status
		}
		return nil, &domain.TransitionError{ReservationID: r.ID, From: current, Action: action}
	}

	// Propagation outlives the caller: once the status is written the
	// dependents should follow even if the request is abandoned.
	failures := s.propagate(context.WithoutCancel(ctx), r, from, action, actor, reason)
	return &domain.TransitionResult{Reservation: r, Previous: from, Failures: failures}, nil
}

func (s *reservationService) undoLock(ctx context.Context, r *domain.Reservation) {
	if err := s.availability.ReleaseHold(context.WithoutCancel(ctx), r.UnitID, r.ID); err != nil {
		logger.Error("Failed to release unit after aborted approval", "store", domain.StoreAvailability, "reservation_id", r.ID, "unitID", r.UnitID, "error", err)
	}
}

type propagationStep func(ctx context.Context) []*domain.PropagationFailure

// propagate runs the dependent writes of a transition in parallel. They are
// independent of each other and each one is bounded by the store timeout.
func (s *reservationService) propagate(ctx context.Context, r *domain.Reservation, from domain.ReservationStatus, action domain.Action, actor domain.Actor, reason string) []*domain.PropagationFailure {
	var steps []propagationStep

	releases := action == domain.ActionComplete || (action == domain.ActionCancel && from.HoldsUnit())
	if releases {
		steps = append(steps, func(ctx context.Context) []*domain.PropagationFailure {
			if err := s.availability.ReleaseHold(ctx, r.UnitID, r.ID); err != nil {
				return []*domain.PropagationFailure{{Store: domain.StoreAvailability, ReservationID: r.ID, Err: err}}
			}
			return nil
		})
	}

	var event domain.LifecycleEvent
	switch action {
	case domain.ActionReject, domain.ActionCancel:
		event = domain.EventCancelled
	case domain.ActionComplete:
		event = domain.EventCompleted
	}
	if event != "" {
		steps = append(steps, func(ctx context.Context) []*domain.PropagationFailure {
			res, err := s.payments.SyncStatus(ctx, r.ID, event)
			if err != nil {
				return []*domain.PropagationFailure{{Store: domain.StoreLedger, ReservationID: r.ID, Err: err}}
			}
			return res.Failures()
		})
	}

	steps = append(steps, func(ctx context.Context) []*domain.PropagationFailure {
		n := transitionNotification(r, action, actor, reason)
		if err := s.notifier.Notify(ctx, n, recipientOf(r)); err != nil {
			return []*domain.PropagationFailure{{Store: domain.StoreNotification, ReservationID: r.ID, Err: err}}
		}
		return nil
	})

	var (
		mu       sync.Mutex
		failures []*domain.PropagationFailure
	)
	var g errgroup.Group
	for _, step := range steps {
		g.Go(func() error {
			if fs := step(ctx); len(fs) > 0 {
				mu.Lock()
				failures = append(failures, fs...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

func (s *reservationService) load(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.reservationRepo.GetByID(sctx, reservationID)
}

func (s *reservationService) GetReservation(ctx context.Context, actor domain.Actor, reservationID string) (*domain.Reservation, error) {
	r, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && r.RenterID != actor.ID {
		return nil, domain.ErrUnauthorized
	}
	return r, nil
}

func (s *reservationService) ListReservations(ctx context.Context, actor domain.Actor, filter domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	if !actor.IsAdmin() {
		filter.RenterID = actor.ID
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.NewValidationError("status", fmt.Sprintf("unknown reservation status %q", filter.Status))
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return s.reservationRepo.List(ctx, filter)
}

func (s *reservationService) UpdateNotes(ctx context.Context, reservationID, notes string) error {
	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.reservationRepo.UpdateNotes(sctx, reservationID, notes)
}

func (s *reservationService) RemindReturns(ctx context.Context, today time.Time) (int, error) {
	date := today.Format(utils.DateLayout)
	logger.EnterMethod("reservationService.RemindReturns", "date", date)

	sctx, cancel := withStoreTimeout(ctx, s.opts.StoreTimeout)
	due, err := s.reservationRepo.ListConfirmedEndingBy(sctx, date)
	cancel()
	if err != nil {
		logger.ExitMethodWithError("reservationService.RemindReturns", err, "date", date)
		return 0, fmt.Errorf("failed to list reservations due back: %w", err)
	}

	sent := 0
	for i := range due {
		r := &due[i]
		// Dates are yyyy-mm-dd so string order is calendar order.
		overdue := r.EndDate < date
		if err := s.notifier.Notify(ctx, returnReminderNotification(r, overdue), recipientOf(r)); err != nil {
			logger.Error("Failed to send return reminder", "store", domain.StoreNotification, "reservation_id", r.ID, "error", err)
			continue
		}
		sent++
	}
	logger.ExitMethod("reservationService.RemindReturns", "date", date, "due", len(due), "sent", sent)
	return sent, nil
}
