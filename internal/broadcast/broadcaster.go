// Package broadcast fans order events out to the role-scoped real-time
// channels consumed by customer, kitchen, captain and admin frontends.
package broadcast

import (
	"context"
	"fmt"

	"qrdine_backend/internal/models"
	"qrdine_backend/pkg/utils"
)

// Event names carried on the channels.
const (
	EventNewOrder     = "new-order"
	EventOrderUpdated = "order-updated"
)

// Message is the envelope published on every channel.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Broadcaster publishes a message to a named channel. Implementations: redis
// pub/sub, a rabbitmq topic exchange and an in-process one for tests.
type Broadcaster interface {
	Publish(ctx context.Context, channel, event string, data interface{}) error
	Close() error
}

// OrderChannels returns the channels an order event fans out to: the
// restaurant-wide staff channels plus the per-order customer channel.
func OrderChannels(order *models.Order) []string {
	return []string{
		fmt.Sprintf("restaurant_%d", order.RestaurantID),
		fmt.Sprintf("kitchen_%d", order.RestaurantID),
		fmt.Sprintf("captain_%d", order.RestaurantID),
		fmt.Sprintf("order_%d", order.ID),
	}
}

// PublishOrder sends event to the staff channels and always sends
// order-updated to the per-order channel. Delivery is fire and forget: a
// failed publish is logged and never fails the triggering request.
func PublishOrder(ctx context.Context, b Broadcaster, order *models.Order, event string) {
	if b == nil || order == nil {
		return
	}
	channels := OrderChannels(order)
	perOrder := channels[len(channels)-1]
	for _, channel := range channels[:len(channels)-1] {
		if err := b.Publish(ctx, channel, event, order); err != nil {
			utils.LogWarn("broadcast publish failed", map[string]interface{}{
				"channel": channel, "event": event, "error": err.Error(),
			})
		}
	}
	if err := b.Publish(ctx, perOrder, EventOrderUpdated, order); err != nil {
		utils.LogWarn("broadcast publish failed", map[string]interface{}{
			"channel": perOrder, "event": EventOrderUpdated, "error": err.Error(),
		})
	}
}
