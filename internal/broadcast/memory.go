package broadcast

import (
	"context"
	"sync"
)

// Recorded is one captured publish.
type Recorded struct {
	Channel string
	Event   string
	Data    interface{}
}

// MemoryBroadcaster collects published messages in memory. It backs tests and
// the BROADCAST_DRIVER=memory dev mode.
type MemoryBroadcaster struct {
	mu       sync.Mutex
	messages []Recorded
}

// NewMemoryBroadcaster creates an empty in-process broadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

func (b *MemoryBroadcaster) Publish(_ context.Context, channel, event string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, Recorded{Channel: channel, Event: event, Data: data})
	return nil
}

func (b *MemoryBroadcaster) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (b *MemoryBroadcaster) Messages() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Recorded(nil), b.messages...)
}

// ByChannel filters captured messages for one channel.
func (b *MemoryBroadcaster) ByChannel(channel string) []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Recorded
	for _, m := range b.messages {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}
