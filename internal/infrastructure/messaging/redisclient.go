package messaging

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// GO-REDIS CLIENT ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// GoRedisClient adapts a go-redis client to the RedisClient interface
// consumed by RedisEventBus. The underlying client is shared with the cache
// layer and owned by the caller.
type GoRedisClient struct {
	client *redis.Client
}

// NewGoRedisClient wraps an existing go-redis client.
func NewGoRedisClient(client *redis.Client) *GoRedisClient {
	return &GoRedisClient{client: client}
}

// Publish sends an already-serialized payload to the channel. The event bus
// marshals its envelope before calling this, so the payload goes out as-is.
func (c *GoRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	return c.client.Publish(ctx, channel, message).Err()
}

// Subscribe opens a Pub/Sub subscription and bridges the go-redis message
// stream into RedisMessage values. The subscription ends with ctx.
func (c *GoRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	pubsub := c.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan RedisMessage)

	go func() {
		<-ctx.Done()
		pubsub.Close()
	}()

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close is a no-op: the cache layer owns the connection lifecycle.
func (c *GoRedisClient) Close() error {
	return nil
}
