package service

import (
	"context"
	"errors"
	"testing"

	"motorent-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func endedSpan(t *testing.T, recorder *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range recorder.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q not recorded", name)
	return nil
}

func spanAttr(s sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestReservationService_TransitionSpans(t *testing.T) {
	ctx := context.Background()

	t.Run("Complete records the move and the failed store", func(t *testing.T) {
		recorder := recordSpans(t)
		e := newEngine(nil)
		e.reservations.On("GetByID", mock.Anything, "res-1").Return(reservationFixture("res-1", domain.ReservationStatusConfirmed), nil)
		e.reservations.On("UpdateStatus", mock.Anything, mock.Anything, domain.ReservationStatusConfirmed).Return(true, nil)
		e.units.On("ReleaseReserved", mock.Anything, "unit-1", "res-1").Return(true, nil)
		e.txs.On("UpdatePaymentStatus", mock.Anything, "res-1", domain.TransactionStatusCompleted, mock.Anything).Return(int64(1), nil)
		e.payments.On("UpdateCashStatus", mock.Anything, "res-1", domain.PaymentStatusSucceeded, mock.Anything).Return(int64(0), errors.New("timeout"))
		e.notes.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := e.svc.Complete(ctx, "res-1", "admin-1")
		require.NoError(t, err)

		span := endedSpan(t, recorder, "reservation.complete")
		assert.Equal(t, "res-1", spanAttr(span, "reservation.id").AsString())
		assert.Equal(t, "confirmed", spanAttr(span, "reservation.from").AsString())
		assert.Equal(t, "completed", spanAttr(span, "reservation.to").AsString())
		assert.Equal(t, int64(1), spanAttr(span, "propagation.failures").AsInt64())
		require.Len(t, span.Events(), 1)
		assert.Equal(t, "propagation_failure", span.Events()[0].Name)
		assert.NotEqual(t, codes.Error, span.Status().Code)
	})

	t.Run("Rejected transition marks the span as failed", func(t *testing.T) {
		recorder := recordSpans(t)
		e := newEngine(nil)
		e.reservations.On("GetByID", mock.Anything, "res-1").Return(reservationFixture("res-1", domain.ReservationStatusCancelled), nil)

		_, err := e.svc.Approve(ctx, "res-1", "admin-1")
		require.ErrorIs(t, err, domain.ErrInvalidTransition)

		span := endedSpan(t, recorder, "reservation.approve")
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, "admin", spanAttr(span, "actor.role").AsString())
	})
}
