package events

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyboard/polyboard/internal/entity"
)

func TestQuoteBroadcaster_FanOut(t *testing.T) {
	b := NewQuoteBroadcaster(4)

	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	update := entity.QuoteUpdate{
		Prices: entity.PriceSnapshot{"a": decimal.NewFromFloat(0.5)},
		State:  entity.ConnOpen,
	}
	b.Publish(update)

	for _, ch := range []<-chan entity.QuoteUpdate{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, entity.ConnOpen, got.State)
			assert.Equal(t, "0.5", got.Prices["a"].String())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the update")
		}
	}
}

func TestQuoteBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewQuoteBroadcaster(4)

	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, open := <-ch
	require.False(t, open)

	// publishing after unsubscribe must not panic
	b.Publish(entity.QuoteUpdate{State: entity.ConnClosed})
	// double unsubscribe is a no-op
	b.Unsubscribe(id)
}

func TestQuoteBroadcaster_SlowConsumerDropped(t *testing.T) {
	b := NewQuoteBroadcaster(1)

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	b.Publish(entity.QuoteUpdate{State: entity.ConnConnecting})
	b.Publish(entity.QuoteUpdate{State: entity.ConnOpen}) // dropped, buffer full

	got := <-ch
	assert.Equal(t, entity.ConnConnecting, got.State)

	select {
	case <-ch:
		t.Fatal("second update should have been dropped")
	default:
	}
}
