package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"motorent-backend/internal/logger"
	"motorent-backend/internal/notify"
	"motorent-backend/internal/security"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterRoutes registers the health probe and the notification stream.
func RegisterRoutes(router *mux.Router, db Pinger, tm security.TokenManager, subscriber notify.Subscriber) {
	router.HandleFunc("/healthz", healthHandler(db)).Methods(http.MethodGet)

	stream := NewNotificationStreamHandler(tm, subscriber)
	router.HandleFunc("/v1/notifications/stream", stream.HandleStream).Methods(http.MethodGet)

	logger.Info("HTTP routes registered", "routes", []string{"/healthz", "/v1/notifications/stream"})
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				logger.Warn("Health check failed", "error", err)
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
