package interceptor

import (
	"context"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"motorent-backend/internal/logger"
)

// Logging logs every unary call with its outcome and turns handler panics
// into Internal errors.
func Logging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("gRPC handler panicked", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
			code := status.Code(err)
			if code == codes.Internal || code == codes.Unknown {
				logger.Error("gRPC call failed", "method", info.FullMethod, "code", code, "duration", time.Since(start), "error", err)
				return
			}
			logger.Debug("gRPC call", "method", info.FullMethod, "code", code, "duration", time.Since(start))
		}()
		return handler(ctx, req)
	}
}
