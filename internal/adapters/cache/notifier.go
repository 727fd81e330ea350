package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier publishes document change signals over Redis pub/sub so that
// subscriptions on every API instance see writes made by any of them.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, logger: logger.With(zap.String("component", "notifier"))}
}

func channelName(uid string) string {
	return "challenge:changed:" + uid
}

func (n *RedisNotifier) Publish(ctx context.Context, uid string) error {
	if err := n.client.Publish(ctx, channelName(uid), "1").Err(); err != nil {
		return fmt.Errorf("cache: publish change: %w", err)
	}
	return nil
}

// Listen returns once the subscription is confirmed by the server, so no
// publish issued afterwards is missed.
func (n *RedisNotifier) Listen(ctx context.Context, uid string) (<-chan struct{}, error) {
	pubsub := n.client.Subscribe(ctx, channelName(uid))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("cache: subscribe to changes: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					n.logger.Warn("change channel closed", zap.String("uid", uid))
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}
