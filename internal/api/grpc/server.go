package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const servicePrefix = "motorent.v1."

// Every RPC takes and returns a google.protobuf.Struct whose fields use the
// same snake_case names as the domain JSON tags.
type structHandler func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

type method struct {
	name    string
	handler structHandler
}

// Handlers groups the service implementations exposed over gRPC.
type Handlers struct {
	Reservation  *ReservationHandler
	Unit         *UnitHandler
	Payment      *PaymentHandler
	Notification *NotificationHandler
}

// RegisterServices registers every motorent.v1 service on s.
func RegisterServices(s grpc.ServiceRegistrar, h *Handlers) {
	register(s, "ReservationService", h.Reservation, h.Reservation.methods())
	register(s, "UnitService", h.Unit, h.Unit.methods())
	register(s, "PaymentService", h.Payment, h.Payment.methods())
	register(s, "NotificationService", h.Notification, h.Notification.methods())
}

func register(s grpc.ServiceRegistrar, service string, impl any, methods []method) {
	desc := grpc.ServiceDesc{
		ServiceName: servicePrefix + service,
		HandlerType: (*any)(nil),
		Metadata:    "motorent/v1/" + service + ".proto",
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unary("/"+desc.ServiceName+"/"+m.name, m.handler),
		})
	}
	s.RegisterService(&desc, impl)
}

// unary adapts a structHandler to the generated-code handler shape so the
// server's interceptor chain sees the full method name.
func unary(fullMethod string, h structHandler) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return h(ctx, req.(*structpb.Struct))
		})
	}
}
