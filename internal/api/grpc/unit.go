package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type UnitHandler struct {
	availabilitySvc service.AvailabilityService
}

func NewUnitHandler(availabilitySvc service.AvailabilityService) *UnitHandler {
	return &UnitHandler{availabilitySvc: availabilitySvc}
}

func (h *UnitHandler) methods() []method {
	return []method{
		{"GetUnit", h.GetUnit},
		{"ListUnits", h.ListUnits},
		{"SetMaintenance", h.SetMaintenance},
		{"ClearMaintenance", h.ClearMaintenance},
		{"ReleaseUnit", h.ReleaseUnit},
	}
}

func (h *UnitHandler) GetUnit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "unit_id")
	if err != nil {
		return nil, err
	}
	return h.unitResponse(ctx, id)
}

func (h *UnitHandler) ListUnits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	units, err := h.availabilitySvc.ListUnits(ctx, domain.Availability(stringField(req, "availability")))
	if err != nil {
		return nil, toStatus(err)
	}
	if units == nil {
		units = []domain.Unit{}
	}
	return toStruct(map[string]any{"units": units})
}

func (h *UnitHandler) SetMaintenance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "unit_id")
	if err != nil {
		return nil, err
	}
	if err := h.availabilitySvc.SetMaintenance(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return h.unitResponse(ctx, id)
}

func (h *UnitHandler) ClearMaintenance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "unit_id")
	if err != nil {
		return nil, err
	}
	if err := h.availabilitySvc.ClearMaintenance(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return h.unitResponse(ctx, id)
}

// ReleaseUnit frees a reserved unit whatever reservation holds it. Units in
// maintenance are left as they are.
func (h *UnitHandler) ReleaseUnit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "unit_id")
	if err != nil {
		return nil, err
	}
	if err := h.availabilitySvc.Release(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	return h.unitResponse(ctx, id)
}

func (h *UnitHandler) unitResponse(ctx context.Context, id string) (*structpb.Struct, error) {
	u, err := h.availabilitySvc.GetUnit(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"unit": u})
}
