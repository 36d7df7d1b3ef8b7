package notify

import (
	"context"
	"fmt"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPublisher pushes notifications to the recipient's Firebase topic.
type FCMPublisher struct {
	sender messageSender
}

func NewFCMPublisher(ctx context.Context, projectID, credentialsFile string) (*FCMPublisher, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	return &FCMPublisher{sender: client}, nil
}

func (p *FCMPublisher) Name() string { return "fcm" }

func (p *FCMPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	msg := buildMessage(n)
	logger.ExternalServiceCall("fcm", "Send", "topic", msg.Topic, "notificationID", n.ID)
	id, err := p.sender.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "Send", err, "topic", msg.Topic, "messageID", id)
	return err
}

func buildMessage(n *domain.Notification) *messaging.Message {
	data := make(map[string]string, len(n.Attributes)+2)
	for k, v := range n.Attributes {
		data[k] = v
	}
	data["notification_id"] = n.ID
	data["type"] = string(n.Type)

	return &messaging.Message{
		Topic: Topic(n.RecipientID),
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: data,
	}
}
