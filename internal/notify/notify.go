// Package notify delivers persisted notifications to live sessions.
package notify

import (
	"context"

	"motorent-backend/internal/domain"
)

// Publisher pushes a notification to one live transport.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, n *domain.Notification) error
}

// Subscriber streams notifications for one recipient until ctx is done or
// the returned close function is called.
type Subscriber interface {
	Subscribe(ctx context.Context, recipientID string) (<-chan *domain.Notification, func() error, error)
}

// Channel is the Redis pub/sub channel for a recipient.
func Channel(recipientID string) string {
	return "notifications:" + recipientID
}

// Topic is the FCM topic mobile clients of a recipient subscribe to.
func Topic(recipientID string) string {
	return "renter-" + recipientID
}
