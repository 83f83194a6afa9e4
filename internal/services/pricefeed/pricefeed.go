// Package pricefeed reconciles the live streamed snapshot with a slower
// polled price map. The stream never guarantees delivery, so a consumer that
// misses a live price falls back to the last polled value.
package pricefeed

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polyboard/polyboard/internal/entity"
)

// PollFunc fetches the current polled price map from the backend.
type PollFunc func(ctx context.Context) (entity.PriceSnapshot, error)

// Feed merges live and polled prices. Live values win whenever present.
type Feed struct {
	poll     PollFunc
	interval time.Duration
	logger   *zap.Logger

	// onTokens, when set, receives the polled token set after every poll. The
	// host uses it to keep the stream subscription aligned with open markets.
	onTokens func([]entity.TokenID)

	mu     sync.RWMutex
	polled entity.PriceSnapshot
	live   entity.QuoteUpdate
}

// New creates a feed polling at the given interval.
func New(poll PollFunc, interval time.Duration, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Feed{
		poll:     poll,
		interval: interval,
		logger:   logger,
		polled:   make(entity.PriceSnapshot),
		live:     entity.QuoteUpdate{Prices: make(entity.PriceSnapshot), State: entity.ConnClosed},
	}
}

// OnTokens registers a callback invoked with the polled token set after every
// successful poll. Must be called before Run.
func (f *Feed) OnTokens(fn func([]entity.TokenID)) {
	f.onTokens = fn
}

// Run polls the backend and applies stream updates until ctx is cancelled.
func (f *Feed) Run(ctx context.Context, updates <-chan entity.QuoteUpdate) error {
	f.pollOnce(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			f.mu.Lock()
			f.live = u
			f.mu.Unlock()
		case <-ticker.C:
			f.pollOnce(ctx)
		}
	}
}

func (f *Feed) pollOnce(ctx context.Context) {
	snapshot, err := f.poll(ctx)
	if err != nil {
		f.logger.Warn("price poll failed", zap.Error(err))
		return
	}

	f.mu.Lock()
	f.polled = snapshot
	f.mu.Unlock()

	if f.onTokens != nil {
		ids := make([]entity.TokenID, 0, len(snapshot))
		for id := range snapshot {
			ids = append(ids, id)
		}
		f.onTokens(ids)
	}
}

// Price returns the best-known price for the token: the live value when the
// stream has one, otherwise the last polled value.
func (f *Feed) Price(id entity.TokenID) (decimal.Decimal, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if price, ok := f.live.Prices[id]; ok {
		return price, true
	}
	price, ok := f.polled[id]
	return price, ok
}

// Snapshot returns the merged observable value: the polled map overlaid with
// every live price, plus the stream's connection state and last error.
func (f *Feed) Snapshot() entity.QuoteUpdate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	merged := f.polled.Clone()
	for id, price := range f.live.Prices {
		merged[id] = price
	}
	return entity.QuoteUpdate{Prices: merged, State: f.live.State, LastError: f.live.LastError}
}
