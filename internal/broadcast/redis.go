package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type redisBroadcaster struct {
	client *redis.Client
}

// NewRedisBroadcaster publishes messages over redis pub/sub. The socket
// gateway subscribes to the same channels and relays to websocket clients.
func NewRedisBroadcaster(client *redis.Client) Broadcaster {
	return &redisBroadcaster{client: client}
}

func (b *redisBroadcaster) Publish(ctx context.Context, channel, event string, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encoding broadcast message for %s: %w", channel, err)
	}
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to redis channel %s: %w", channel, err)
	}
	return nil
}

func (b *redisBroadcaster) Close() error {
	return b.client.Close()
}
