package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type ReservationHandler struct {
	reservationSvc service.ReservationService
	reconcileSvc   service.ReconcileService
}

func NewReservationHandler(reservationSvc service.ReservationService, reconcileSvc service.ReconcileService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc, reconcileSvc: reconcileSvc}
}

func (h *ReservationHandler) methods() []method {
	return []method{
		{"BookReservation", h.BookReservation},
		{"ApproveReservation", h.ApproveReservation},
		{"RejectReservation", h.RejectReservation},
		{"CompleteReservation", h.CompleteReservation},
		{"CancelReservation", h.CancelReservation},
		{"GetReservation", h.GetReservation},
		{"ListReservations", h.ListReservations},
		{"UpdateAdminNotes", h.UpdateAdminNotes},
		{"ReconcileReservation", h.ReconcileReservation},
	}
}

func (h *ReservationHandler) BookReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	// Admins may book on behalf of a walk-in renter.
	renterID := actor.ID
	if actor.IsAdmin() && stringField(req, "renter_id") != "" {
		renterID = stringField(req, "renter_id")
	}

	r, err := h.reservationSvc.Book(ctx, service.BookingRequest{
		UnitID:           stringField(req, "unit_id"),
		RenterID:         renterID,
		StartDate:        stringField(req, "start_date"),
		EndDate:          stringField(req, "end_date"),
		PickupTime:       stringField(req, "pickup_time"),
		ReturnTime:       stringField(req, "return_time"),
		CustomerName:     stringField(req, "customer_name"),
		CustomerEmail:    stringField(req, "customer_email"),
		CustomerPhone:    stringField(req, "customer_phone"),
		PaymentMethod:    stringField(req, "payment_method"),
		PaymentReference: stringField(req, "payment_reference"),
		PaymentProofURL:  stringField(req, "payment_proof_url"),
		Notes:            stringField(req, "notes"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"reservation": r})
}

func (h *ReservationHandler) ApproveReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.adminTransition(ctx, req, func(ctx context.Context, id, adminID string) (*domain.TransitionResult, error) {
		return h.reservationSvc.Approve(ctx, id, adminID)
	})
}

func (h *ReservationHandler) RejectReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	reason := stringField(req, "reason")
	return h.adminTransition(ctx, req, func(ctx context.Context, id, adminID string) (*domain.TransitionResult, error) {
		return h.reservationSvc.Reject(ctx, id, adminID, reason)
	})
}

func (h *ReservationHandler) CompleteReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.adminTransition(ctx, req, func(ctx context.Context, id, adminID string) (*domain.TransitionResult, error) {
		return h.reservationSvc.Complete(ctx, id, adminID)
	})
}

func (h *ReservationHandler) adminTransition(ctx context.Context, req *structpb.Struct, apply func(ctx context.Context, id, adminID string) (*domain.TransitionResult, error)) (*structpb.Struct, error) {
	adminID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return nil, err
	}
	res, err := apply(ctx, id, adminID)
	if err != nil {
		return nil, toStatus(err)
	}
	return mapTransitionResult(res)
}

func (h *ReservationHandler) CancelReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return nil, err
	}
	res, err := h.reservationSvc.Cancel(ctx, id, actor, stringField(req, "reason"))
	if err != nil {
		return nil, toStatus(err)
	}
	return mapTransitionResult(res)
}

func (h *ReservationHandler) GetReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return nil, err
	}
	r, err := h.reservationSvc.GetReservation(ctx, actor, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"reservation": r})
}

func (h *ReservationHandler) ListReservations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	list, total, err := h.reservationSvc.ListReservations(ctx, actor, domain.ReservationFilter{
		RenterID: stringField(req, "renter_id"),
		UnitID:   stringField(req, "unit_id"),
		Status:   domain.ReservationStatus(stringField(req, "status")),
		Page:     int32Field(req, "page"),
		PageSize: int32Field(req, "page_size"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	if list == nil {
		list = []domain.Reservation{}
	}
	return toStruct(map[string]any{"reservations": list, "total_count": total})
}

func (h *ReservationHandler) UpdateAdminNotes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return nil, err
	}
	if err := h.reservationSvc.UpdateNotes(ctx, id, stringField(req, "notes")); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"success": true})
}

func (h *ReservationHandler) ReconcileReservation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "reservation_id")
	if err != nil {
		return nil, err
	}
	report, err := h.reconcileSvc.ReconcileReservation(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	view := map[string]any{
		"reservation_id":      report.ReservationID,
		"status":              report.Status,
		"created_transaction": report.CreatedTransaction,
		"created_payment":     report.CreatedPayment,
		"availability_before": report.AvailabilityBefore,
		"availability_after":  report.AvailabilityAfter,
		"failures":            mapFailures(report.Failures),
	}
	if report.Sync != nil {
		view["sync"] = mapSyncResult(report.Sync)
	}
	return toStruct(view)
}
