package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) methods() []method {
	return []method{
		{"GetNotifications", h.GetNotifications},
		{"GetUnreadCount", h.GetUnreadCount},
		{"MarkNotificationRead", h.MarkNotificationRead},
		{"MarkAllNotificationsRead", h.MarkAllNotificationsRead},
		{"DeleteAllNotifications", h.DeleteAllNotifications},
	}
}

func (h *NotificationHandler) GetNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, count, err := h.noteSvc.GetNotifications(ctx, userID, int32Field(req, "page"), int32Field(req, "page_size"))
	if err != nil {
		return nil, toStatus(err)
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	return toStruct(map[string]any{"notifications": notes, "total_count": count})
}

func (h *NotificationHandler) GetUnreadCount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	count, err := h.noteSvc.UnreadCount(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"unread_count": count})
}

func (h *NotificationHandler) MarkNotificationRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredString(req, "notification_id")
	if err != nil {
		return nil, err
	}
	if err := h.noteSvc.MarkAsRead(ctx, userID, id); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"success": true})
}

func (h *NotificationHandler) MarkAllNotificationsRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.noteSvc.MarkAllAsRead(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"updated": n})
}

func (h *NotificationHandler) DeleteAllNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.noteSvc.DeleteAll(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"deleted": n})
}
