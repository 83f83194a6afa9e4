package pricefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polyboard/polyboard/internal/entity"
)

func snapshotPoll(snapshot entity.PriceSnapshot) PollFunc {
	return func(context.Context) (entity.PriceSnapshot, error) {
		return snapshot.Clone(), nil
	}
}

func TestFeed_LivePriceWinsOverPolled(t *testing.T) {
	polled := entity.PriceSnapshot{
		"a": decimal.NewFromFloat(0.40),
		"b": decimal.NewFromFloat(0.60),
	}
	f := New(snapshotPoll(polled), time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan entity.QuoteUpdate, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Run(ctx, updates)
	}()

	require.Eventually(t, func() bool {
		_, ok := f.Price("a")
		return ok
	}, time.Second, 5*time.Millisecond)

	updates <- entity.QuoteUpdate{
		Prices: entity.PriceSnapshot{"a": decimal.NewFromFloat(0.55)},
		State:  entity.ConnOpen,
	}

	require.Eventually(t, func() bool {
		price, _ := f.Price("a")
		return price.String() == "0.55"
	}, time.Second, 5*time.Millisecond)

	// no live value for b: polled fallback
	price, ok := f.Price("b")
	require.True(t, ok)
	assert.Equal(t, "0.6", price.String())

	merged := f.Snapshot()
	assert.Equal(t, entity.ConnOpen, merged.State)
	assert.Equal(t, "0.55", merged.Prices["a"].String())
	assert.Equal(t, "0.6", merged.Prices["b"].String())

	cancel()
	<-done
}

func TestFeed_UnknownTokenAbsent(t *testing.T) {
	f := New(snapshotPoll(entity.PriceSnapshot{}), time.Hour, zap.NewNop())
	_, ok := f.Price("missing")
	assert.False(t, ok)
}

func TestFeed_OnTokensReceivesPolledSet(t *testing.T) {
	polled := entity.PriceSnapshot{"a": decimal.NewFromFloat(0.4)}
	f := New(snapshotPoll(polled), time.Hour, zap.NewNop())

	var mu sync.Mutex
	var got []entity.TokenID
	f.OnTokens(func(ids []entity.TokenID) {
		mu.Lock()
		got = append(got[:0], ids...)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx, make(chan entity.QuoteUpdate)) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "a"
	}, time.Second, 5*time.Millisecond)
}

func TestFeed_PollErrorKeepsLastSnapshot(t *testing.T) {
	calls := 0
	poll := func(context.Context) (entity.PriceSnapshot, error) {
		calls++
		if calls > 1 {
			return nil, assert.AnError
		}
		return entity.PriceSnapshot{"a": decimal.NewFromFloat(0.4)}, nil
	}
	f := New(poll, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = f.Run(ctx, make(chan entity.QuoteUpdate))

	price, ok := f.Price("a")
	require.True(t, ok)
	assert.Equal(t, "0.4", price.String())
}
