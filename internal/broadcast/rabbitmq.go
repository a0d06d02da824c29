package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "order.events"

type rabbitBroadcaster struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitBroadcaster publishes messages to a topic exchange, using the
// broadcast channel name as the routing key. Selected with
// BROADCAST_DRIVER=rabbitmq for deployments that already run a broker.
func NewRabbitBroadcaster(url string) (Broadcaster, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	err = channel.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchangeName, err)
	}
	return &rabbitBroadcaster{conn: conn, channel: channel}, nil
}

func (b *rabbitBroadcaster) Publish(ctx context.Context, channel, event string, data interface{}) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encoding broadcast message for %s: %w", channel, err)
	}
	err = b.channel.PublishWithContext(ctx, exchangeName, channel, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("publishing to rabbitmq routing key %s: %w", channel, err)
	}
	return nil
}

func (b *rabbitBroadcaster) Close() error {
	if err := b.channel.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}
