package domain

import "time"

type NotificationType string

const (
	NotificationTypeInfo      NotificationType = "info"
	NotificationTypeSuccess   NotificationType = "success"
	NotificationTypeWarning   NotificationType = "warning"
	NotificationTypeError     NotificationType = "error"
	NotificationTypeConfirmed NotificationType = "confirmed"
	NotificationTypeRejected  NotificationType = "rejected"
)

type Notification struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Type        NotificationType  `json:"type"`
	IsRead      bool              `json:"is_read"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedOn   time.Time         `json:"created_on"`
}

// Recipient carries the delivery addresses known for a notification target.
type Recipient struct {
	ID    string
	Name  string
	Email string
}
