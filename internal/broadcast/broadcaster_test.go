package broadcast

import (
	"context"
	"testing"

	"qrdine_backend/internal/models"
)

func TestPublishOrderFanOut(t *testing.T) {
	b := NewMemoryBroadcaster()
	order := &models.Order{ID: 42, RestaurantID: 7}

	PublishOrder(context.Background(), b, order, EventNewOrder)

	wantEvents := map[string]string{
		"restaurant_7": EventNewOrder,
		"kitchen_7":    EventNewOrder,
		"captain_7":    EventNewOrder,
		// The customer channel always gets order-updated, whatever triggered
		// the publish.
		"order_42": EventOrderUpdated,
	}

	msgs := b.Messages()
	if len(msgs) != len(wantEvents) {
		t.Fatalf("published %d messages, want %d", len(msgs), len(wantEvents))
	}
	for _, m := range msgs {
		want, ok := wantEvents[m.Channel]
		if !ok {
			t.Errorf("unexpected channel %s", m.Channel)
			continue
		}
		if m.Event != want {
			t.Errorf("channel %s got event %s, want %s", m.Channel, m.Event, want)
		}
	}
}

func TestPublishOrderNilBroadcasterIsSafe(t *testing.T) {
	// Fire and forget must hold even when fan-out is not configured.
	PublishOrder(context.Background(), nil, &models.Order{ID: 1, RestaurantID: 1}, EventNewOrder)
}
