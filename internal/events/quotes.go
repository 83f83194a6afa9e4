// Package events fans out observable state between services and the web layer.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/polyboard/polyboard/internal/entity"
)

// QuoteBroadcaster fans out quote updates to all subscribers via buffered
// channels. It keeps the API intentionally small so call sites can stay
// straightforward.
type QuoteBroadcaster struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan entity.QuoteUpdate
	buffer int
}

// NewQuoteBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewQuoteBroadcaster(buffer int) *QuoteBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &QuoteBroadcaster{
		subs:   make(map[uuid.UUID]chan entity.QuoteUpdate),
		buffer: buffer,
	}
}

// Publish sends the update to all subscribers, dropping if a reader is slow.
func (b *QuoteBroadcaster) Publish(u entity.QuoteUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a subscriber ID and a channel that receives updates until
// Unsubscribe is called with that ID.
func (b *QuoteBroadcaster) Subscribe() (uuid.UUID, <-chan entity.QuoteUpdate) {
	id := uuid.New()
	ch := make(chan entity.QuoteUpdate, b.buffer)
	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *QuoteBroadcaster) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}
