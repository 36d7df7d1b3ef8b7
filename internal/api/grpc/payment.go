package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

const defaultSummaryWindow = 30 * 24 * time.Hour

type PaymentHandler struct {
	paymentSvc     service.PaymentService
	reservationSvc service.ReservationService
}

func NewPaymentHandler(paymentSvc service.PaymentService, reservationSvc service.ReservationService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, reservationSvc: reservationSvc}
}

func (h *PaymentHandler) methods() []method {
	return []method{
		{"ListTransactions", h.ListTransactions},
		{"ListPayments", h.ListPayments},
		{"MarkPaid", h.MarkPaid},
		{"RefundPayment", h.RefundPayment},
		{"GetLedgerSummary", h.GetLedgerSummary},
	}
}

// authorizeReservation checks that the caller may read the reservation's
// money trail.
func (h *PaymentHandler) authorizeReservation(ctx context.Context, req *structpb.Struct) (string, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return "", err
	}
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return "", err
	}
	if _, err := h.reservationSvc.GetReservation(ctx, actor, id); err != nil {
		return "", toStatus(err)
	}
	return id, nil
}

func (h *PaymentHandler) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := h.authorizeReservation(ctx, req)
	if err != nil {
		return nil, err
	}
	txs, err := h.paymentSvc.ListTransactions(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return toStruct(map[string]any{"transactions": txs})
}

func (h *PaymentHandler) ListPayments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := h.authorizeReservation(ctx, req)
	if err != nil {
		return nil, err
	}
	payments, err := h.paymentSvc.ListPayments(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}
	return toStruct(map[string]any{"payments": payments})
}

func (h *PaymentHandler) MarkPaid(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return nil, err
	}
	res, err := h.paymentSvc.MarkPaid(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(mapSyncResult(res))
}

func (h *PaymentHandler) RefundPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "payment_id")
	if err != nil {
		return nil, err
	}
	p, err := h.paymentSvc.Refund(ctx, id, int64Field(req, "amount_cents"), stringField(req, "reason"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"payment": p})
}

func (h *PaymentHandler) GetLedgerSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	since := time.Now().Add(-defaultSummaryWindow)
	if raw := stringField(req, "since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "since must be RFC3339: %v", err)
		}
		since = t
	}
	summary, err := h.paymentSvc.LedgerSummary(ctx, since)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"summary": summary, "since": since.UTC().Format(time.RFC3339)})
}
