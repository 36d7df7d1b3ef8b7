package grpc

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"motorent-backend/internal/domain"
)

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	v := stringField(req, name)
	if v == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return v, nil
}

func int32Field(req *structpb.Struct, name string) int32 {
	return int32(req.GetFields()[name].GetNumberValue())
}

func int64Field(req *structpb.Struct, name string) int64 {
	return int64(req.GetFields()[name].GetNumberValue())
}

// toStruct encodes fields through their JSON tags into a Struct.
func toStruct(fields map[string]any) (*structpb.Struct, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return s, nil
}

type failureView struct {
	Store string `json:"store"`
	Error string `json:"error"`
}

func mapFailures(failures []*domain.PropagationFailure) []failureView {
	out := make([]failureView, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureView{Store: string(f.Store), Error: fmt.Sprint(f.Err)})
	}
	return out
}

func mapTransitionResult(res *domain.TransitionResult) (*structpb.Struct, error) {
	return toStruct(map[string]any{
		"reservation":          res.Reservation,
		"previous_status":      res.Previous,
		"consistent":           res.Consistent(),
		"propagation_failures": mapFailures(res.Failures),
	})
}

func mapSyncResult(res *domain.SyncResult) map[string]any {
	view := map[string]any{
		"reservation_id":  res.ReservationID,
		"event":           res.Event,
		"ledger_updated":  res.Ledger.Updated,
		"payment_updated": res.Payment.Updated,
		"ok":              res.OK(),
	}
	view["failures"] = mapFailures(res.Failures())
	return view
}
