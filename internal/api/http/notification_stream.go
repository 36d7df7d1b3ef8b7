package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"motorent-backend/internal/api/grpc/interceptor"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/notify"
	"motorent-backend/internal/security"
)

const keepAliveInterval = 25 * time.Second

// NotificationStreamHandler relays live notifications as server-sent events
type NotificationStreamHandler struct {
	tokenManager security.TokenManager
	subscriber   notify.Subscriber
	keepAlive    time.Duration
}

func NewNotificationStreamHandler(tm security.TokenManager, subscriber notify.Subscriber) *NotificationStreamHandler {
	return &NotificationStreamHandler{
		tokenManager: tm,
		subscriber:   subscriber,
		keepAlive:    keepAliveInterval,
	}
}

// HandleStream authenticates the caller and streams their notifications until
// the client disconnects. Browsers cannot set headers on EventSource, so the
// token may also come in the access_token query parameter.
func (h *NotificationStreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	token := interceptor.StripBearer(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("access_token")
	}
	if token == "" {
		http.Error(w, "Missing access token", http.StatusUnauthorized)
		return
	}
	claims, err := h.tokenManager.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid access token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	if h.subscriber == nil {
		http.Error(w, "Live notifications disabled", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	notes, closeSub, err := h.subscriber.Subscribe(ctx, claims.UserID)
	if err != nil {
		logger.Error("Failed to subscribe to notifications", "userID", claims.UserID, "error", err)
		http.Error(w, "Failed to subscribe", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := closeSub(); err != nil {
			logger.Warn("Failed to close notification subscription", "userID", claims.UserID, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()
	logger.Debug("Notification stream opened", "userID", claims.UserID)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Notification stream closed", "userID", claims.UserID)
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case n, ok := <-notes:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				logger.Error("Failed to encode notification", "notificationID", n.ID, "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, data)
			flusher.Flush()
		}
	}
}
