package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisPublisher struct {
	client redisPublishClient
}

func NewRedisPublisher(client redisPublishClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	channel := Channel(n.RecipientID)
	logger.ExternalServiceCall("redis", "PUBLISH", "channel", channel, "notificationID", n.ID)
	receivers, err := p.client.Publish(ctx, channel, data).Result()
	logger.ExternalServiceResult("redis", "PUBLISH", err, "channel", channel, "receivers", receivers)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

type RedisSubscriber struct {
	client *redis.Client
	buffer int
}

func NewRedisSubscriber(client *redis.Client) *RedisSubscriber {
	return &RedisSubscriber{client: client, buffer: 32}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, recipientID string) (<-chan *domain.Notification, func() error, error) {
	channel := Channel(recipientID)
	pubsub := s.client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so callers know it is live.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	logger.Debug("Subscribed to notification channel", "channel", channel)

	out := make(chan *domain.Notification, s.buffer)
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n domain.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logger.Warn("Dropping malformed notification payload", "channel", channel, "error", err)
					continue
				}
				select {
				case out <- &n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close, nil
}
