package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"motorent-backend/internal/config"
	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) ReconcileReservation(ctx context.Context, reservationID string) (*domain.ReconcileReport, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconcileReport), args.Error(1)
}

func (m *MockReconcileService) ReconcileRecent(ctx context.Context, since time.Time) ([]*domain.ReconcileReport, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReconcileReport), args.Error(1)
}

// MockReservationService only implements what the jobs call.
type MockReservationService struct {
	service.ReservationService
	mock.Mock
}

func (m *MockReservationService) RemindReturns(ctx context.Context, today time.Time) (int, error) {
	args := m.Called(ctx, today)
	return args.Int(0), args.Error(1)
}

var now = time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)

func newRunner(reservations *MockReservationService, reconcile *MockReconcileService) *JobRunner {
	cfg := &config.Config{Lifecycle: config.LifecycleConfig{ReconcileLookback: 24}}
	jr := NewJobRunner(&Services{Reservation: reservations, Reconcile: reconcile}, cfg)
	jr.now = func() time.Time { return now }
	return jr
}

func TestReconcileReservations(t *testing.T) {
	t.Run("Uses the lookback window", func(t *testing.T) {
		reconcile := new(MockReconcileService)
		reconcile.On("ReconcileRecent", mock.Anything, now.Add(-24*time.Hour)).Return([]*domain.ReconcileReport{
			{ReservationID: "res-1", CreatedPayment: true, AvailabilityBefore: domain.AvailabilityAvailable, AvailabilityAfter: domain.AvailabilityReserved},
			{ReservationID: "res-2", Sync: &domain.SyncResult{Ledger: domain.SideResult{Updated: 1}}},
		}, nil)

		newRunner(new(MockReservationService), reconcile).ReconcileReservations()
		reconcile.AssertExpectations(t)
	})

	t.Run("Failure is contained", func(t *testing.T) {
		reconcile := new(MockReconcileService)
		reconcile.On("ReconcileRecent", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		assert.NotPanics(t, func() {
			newRunner(new(MockReservationService), reconcile).ReconcileReservations()
		})
	})

	t.Run("Panic is recovered", func(t *testing.T) {
		reconcile := new(MockReconcileService)
		reconcile.On("ReconcileRecent", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			panic("boom")
		}).Return(nil, nil)

		assert.NotPanics(t, func() {
			newRunner(new(MockReservationService), reconcile).ReconcileReservations()
		})
	})
}

func TestSendReturnReminders(t *testing.T) {
	reservations := new(MockReservationService)
	reservations.On("RemindReturns", mock.Anything, now).Return(2, nil)

	newRunner(reservations, new(MockReconcileService)).SendReturnReminders()
	reservations.AssertExpectations(t)
}

func TestRunAll(t *testing.T) {
	reservations := new(MockReservationService)
	reservations.On("RemindReturns", mock.Anything, mock.Anything).Return(0, nil)
	reconcile := new(MockReconcileService)
	reconcile.On("ReconcileRecent", mock.Anything, mock.Anything).Return([]*domain.ReconcileReport{}, nil)

	newRunner(reservations, reconcile).RunAll()
	reservations.AssertNumberOfCalls(t, "RemindReturns", 1)
	reconcile.AssertNumberOfCalls(t, "ReconcileRecent", 1)
}
