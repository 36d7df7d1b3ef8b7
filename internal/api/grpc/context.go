package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"motorent-backend/internal/domain"
)

// GetUserIDFromContext extracts the user ID from the gRPC metadata.
// It expects a header named "user-id".
func GetUserIDFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	userIDs := md.Get("user-id")
	if len(userIDs) == 0 || userIDs[0] == "" {
		return "", status.Errorf(codes.Unauthenticated, "user_id is not provided in metadata")
	}
	return userIDs[0], nil
}

// GetActorFromContext returns the caller as set by the auth interceptor.
// A missing "user-role" header means renter.
func GetActorFromContext(ctx context.Context) (domain.Actor, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	actor := domain.Actor{ID: userID, Role: domain.ActorRenter}
	md, _ := metadata.FromIncomingContext(ctx)
	if roles := md.Get("user-role"); len(roles) > 0 && roles[0] == string(domain.ActorAdmin) {
		actor.Role = domain.ActorAdmin
	}
	return actor, nil
}
