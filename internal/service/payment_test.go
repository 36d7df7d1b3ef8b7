package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"motorent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPaymentService() (PaymentService, *MockReservationRepo, *MockTransactionRepo, *MockPaymentRepo) {
	reservations := new(MockReservationRepo)
	txs := new(MockTransactionRepo)
	payments := new(MockPaymentRepo)
	svc := NewPaymentService(reservations, txs, payments, LifecycleOptions{
		StoreTimeout: time.Second,
		Now:          func() time.Time { return fixedNow },
	})
	return svc, reservations, txs, payments
}

func TestPaymentService_EnsureRecords(t *testing.T) {
	ctx := context.Background()
	r := reservationFixture("res-1", domain.ReservationStatusPending)

	t.Run("Existing records are left alone", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		txs.On("ListByReservation", mock.Anything, "res-1").Return([]domain.Transaction{{ID: "tx-1", Type: domain.TransactionTypePayment}}, nil)
		payments.On("ListByReservation", mock.Anything, "res-1").Return([]domain.PaymentRecord{{ID: "pay-1"}}, nil)

		createdTx, createdPayment, err := svc.EnsureRecords(ctx, r)
		require.NoError(t, err)
		assert.False(t, createdTx)
		assert.False(t, createdPayment)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Refund row does not count as the payment entry", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		txs.On("ListByReservation", mock.Anything, "res-1").Return([]domain.Transaction{{ID: "tx-9", Type: domain.TransactionTypeRefund}}, nil)
		txs.On("Create", mock.Anything, mock.Anything).Return(nil)
		payments.On("ListByReservation", mock.Anything, "res-1").Return([]domain.PaymentRecord{{ID: "pay-1"}}, nil)

		createdTx, _, err := svc.EnsureRecords(ctx, r)
		require.NoError(t, err)
		assert.True(t, createdTx)
	})

	t.Run("Each side fails independently", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		txs.On("ListByReservation", mock.Anything, "res-1").Return([]domain.Transaction{}, nil)
		txs.On("Create", mock.Anything, mock.Anything).Return(errors.New("constraint violation"))
		payments.On("ListByReservation", mock.Anything, "res-1").Return([]domain.PaymentRecord{}, nil)
		payments.On("Create", mock.Anything, mock.Anything).Return(nil)

		createdTx, createdPayment, err := svc.EnsureRecords(ctx, r)
		require.Error(t, err)
		assert.False(t, createdTx)
		assert.True(t, createdPayment)

		failures := collectFailures(err, "res-1", domain.StorePayment)
		require.Len(t, failures, 1)
		assert.Equal(t, domain.StoreLedger, failures[0].Store)
	})
}

func TestPaymentService_SyncStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Re-applying an event is a no-op", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		txs.On("UpdatePaymentStatus", mock.Anything, "res-1", domain.TransactionStatusCompleted,
			[]domain.TransactionStatus{domain.TransactionStatusPending, domain.TransactionStatusFailed}).Return(int64(1), nil).Once()
		txs.On("UpdatePaymentStatus", mock.Anything, "res-1", domain.TransactionStatusCompleted, mock.Anything).Return(int64(0), nil)
		payments.On("UpdateCashStatus", mock.Anything, "res-1", domain.PaymentStatusSucceeded, mock.Anything).Return(int64(1), nil).Once()
		payments.On("UpdateCashStatus", mock.Anything, "res-1", domain.PaymentStatusSucceeded, mock.Anything).Return(int64(0), nil)

		first, err := svc.SyncStatus(ctx, "res-1", domain.EventCompleted)
		require.NoError(t, err)
		assert.True(t, first.OK())
		assert.Equal(t, int64(1), first.Ledger.Updated)
		assert.Equal(t, int64(1), first.Payment.Updated)

		second, err := svc.SyncStatus(ctx, "res-1", domain.EventCompleted)
		require.NoError(t, err)
		assert.True(t, second.OK())
		assert.Zero(t, second.Ledger.Updated)
		assert.Zero(t, second.Payment.Updated)
	})

	t.Run("One side failing does not stop the other", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		txs.On("UpdatePaymentStatus", mock.Anything, "res-1", domain.TransactionStatusCancelled, mock.Anything).Return(int64(0), errors.New("deadlock detected"))
		payments.On("UpdateCashStatus", mock.Anything, "res-1", domain.PaymentStatusCancelled, mock.Anything).Return(int64(1), nil)

		res, err := svc.SyncStatus(ctx, "res-1", domain.EventCancelled)
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Error(t, res.Ledger.Err)
		assert.Equal(t, int64(1), res.Payment.Updated)
	})

	t.Run("Unknown event", func(t *testing.T) {
		svc, _, _, _ := newTestPaymentService()
		_, err := svc.SyncStatus(ctx, "res-1", domain.LifecycleEvent("paid_twice"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestPaymentService_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("Cancelled reservation is refused", func(t *testing.T) {
		svc, reservations, txs, _ := newTestPaymentService()
		reservations.On("GetByID", mock.Anything, "res-1").Return(reservationFixture("res-1", domain.ReservationStatusCancelled), nil)

		_, err := svc.MarkPaid(ctx, "res-1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		txs.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Confirmed reservation is collected", func(t *testing.T) {
		svc, reservations, txs, payments := newTestPaymentService()
		reservations.On("GetByID", mock.Anything, "res-1").Return(reservationFixture("res-1", domain.ReservationStatusConfirmed), nil)
		txs.On("UpdatePaymentStatus", mock.Anything, "res-1", domain.TransactionStatusCompleted, mock.Anything).Return(int64(1), nil)
		payments.On("UpdateCashStatus", mock.Anything, "res-1", domain.PaymentStatusSucceeded, mock.Anything).Return(int64(1), nil)

		res, err := svc.MarkPaid(ctx, "res-1")
		require.NoError(t, err)
		assert.Equal(t, domain.EventMarkedPaid, res.Event)
		assert.True(t, res.OK())
	})
}

func TestPaymentService_Refund(t *testing.T) {
	ctx := context.Background()
	succeeded := &domain.PaymentRecord{ID: "pay-1", ReservationID: "res-1", RenterID: "renter-1", AmountCents: 192000, Status: domain.PaymentStatusSucceeded}

	t.Run("Full refund", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		payments.On("GetByID", mock.Anything, "pay-1").Return(succeeded, nil)
		payments.On("ApplyRefund", mock.Anything, "pay-1", domain.PaymentStatusRefunded, int64(192000), "unit broke down").Return(true, nil)
		txs.On("Create", mock.Anything, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.Type == domain.TransactionTypeRefund && tx.AmountCents == 192000 && *tx.ReservationID == "res-1"
		})).Return(nil)

		p, err := svc.Refund(ctx, "pay-1", 192000, "unit broke down")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, p.Status)
		assert.Equal(t, int64(192000), p.RefundAmountCents)
		txs.AssertExpectations(t)
	})

	t.Run("Partial refund survives ledger failure", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		payments.On("GetByID", mock.Anything, "pay-1").Return(succeeded, nil)
		payments.On("ApplyRefund", mock.Anything, "pay-1", domain.PaymentStatusPartiallyRefunded, int64(32000), "deposit").Return(true, nil)
		txs.On("Create", mock.Anything, mock.Anything).Return(errors.New("timeout"))

		p, err := svc.Refund(ctx, "pay-1", 32000, "deposit")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPartiallyRefunded, p.Status)
	})

	t.Run("Rejected refunds", func(t *testing.T) {
		pending := *succeeded
		pending.Status = domain.PaymentStatusPending

		tests := []struct {
			name   string
			record *domain.PaymentRecord
			amount int64
		}{
			{"payment not collected", &pending, 1000},
			{"zero amount", succeeded, 0},
			{"negative amount", succeeded, -5},
			{"more than paid", succeeded, 192001},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _, _, payments := newTestPaymentService()
				payments.On("GetByID", mock.Anything, "pay-1").Return(tt.record, nil)

				_, err := svc.Refund(ctx, "pay-1", tt.amount, "")
				assert.ErrorIs(t, err, domain.ErrValidation)
				payments.AssertNotCalled(t, "ApplyRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("Concurrent refund loses the race", func(t *testing.T) {
		svc, _, txs, payments := newTestPaymentService()
		payments.On("GetByID", mock.Anything, "pay-1").Return(succeeded, nil)
		payments.On("ApplyRefund", mock.Anything, "pay-1", domain.PaymentStatusRefunded, int64(192000), "").Return(false, nil)

		_, err := svc.Refund(ctx, "pay-1", 192000, "")
		assert.ErrorIs(t, err, domain.ErrValidation)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
