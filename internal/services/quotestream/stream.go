// Package quotestream maintains the live price subscription against the
// backend's /ws/prices endpoint. It owns one streaming connection at a time,
// merges inbound price deltas into a snapshot and reconnects on its own after
// transport faults, so consumers only ever observe (snapshot, state, lastError).
package quotestream

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polyboard/polyboard/internal/entity"
	"github.com/polyboard/polyboard/internal/events"
)

// DefaultReconnectDelay is the pause between a lost connection and the single
// scheduled reconnect attempt. The reference behavior is a fixed delay with no
// growth and no retry cap; growth stays available as a tunable.
const DefaultReconnectDelay = 2 * time.Second

type subscribeMsg struct {
	Action   string   `json:"action"`
	TokenIDs []string `json:"token_ids"`
}

type inboundMsg struct {
	Type     string                             `json:"type"`
	Data     map[entity.TokenID]decimal.Decimal `json:"data,omitempty"`
	TokenIDs []string                           `json:"token_ids,omitempty"`
	Message  string                             `json:"message,omitempty"`
}

// Conn is the minimal websocket surface the stream needs. *websocket.Conn
// satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens one streaming connection.
type Dialer func(ctx context.Context) (Conn, error)

// WebsocketDialer dials url with gorilla's default dialer.
func WebsocketDialer(url string) Dialer {
	return func(ctx context.Context) (Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "dial %s", url)
		}
		return conn, nil
	}
}

// Stream owns the subscription set, the price snapshot and the connection
// lifecycle. All mutation happens behind its mutex; consumers get copies.
type Stream struct {
	dial        Dialer
	broadcaster *events.QuoteBroadcaster
	logger      *zap.Logger
	delay       *backoff.Backoff

	mu      sync.Mutex
	ids     map[entity.TokenID]struct{}
	prices  entity.PriceSnapshot
	state   entity.ConnState
	lastErr string
	conn    Conn
	retry   *time.Timer
	// gen invalidates readers and pending dials of superseded connections.
	gen     int
	enabled bool
	closed  bool
}

// Option configures a Stream.
type Option func(*Stream)

// WithReconnectDelay sets the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Stream) {
		s.delay.Min = d
		s.delay.Max = d
	}
}

// WithBackoffFactor enables reconnect delay growth up to max. The default
// factor of 1 keeps the delay fixed.
func WithBackoffFactor(factor float64, max time.Duration) Option {
	return func(s *Stream) {
		s.delay.Factor = factor
		s.delay.Max = max
	}
}

// New creates a stream that publishes every observable change to broadcaster.
// It stays idle until Configure enables it.
func New(dial Dialer, broadcaster *events.QuoteBroadcaster, logger *zap.Logger, opts ...Option) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stream{
		dial:        dial,
		broadcaster: broadcaster,
		logger:      logger,
		delay: &backoff.Backoff{
			Min:    DefaultReconnectDelay,
			Max:    DefaultReconnectDelay,
			Factor: 1,
		},
		ids:    make(map[entity.TokenID]struct{}),
		prices: make(entity.PriceSnapshot),
		state:  entity.ConnClosed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure replaces the subscription set. It is idempotent: an identical set
// produces no outbound traffic. An empty set or enabled=false tears the
// connection down and clears the snapshot.
func (s *Stream) Configure(ids []entity.TokenID, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	next := make(map[entity.TokenID]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}

	if !enabled || len(next) == 0 {
		if !s.enabled && len(s.ids) == 0 {
			return
		}
		s.enabled = false
		s.ids = next
		s.teardownLocked()
		s.publishLocked()
		return
	}

	if s.enabled && sameSet(s.ids, next) {
		return
	}
	s.ids = next

	if !s.enabled {
		s.enabled = true
		s.connectLocked()
		return
	}

	// Connected: the new set rides the existing connection. Otherwise a dial
	// or retry is already in flight and will subscribe with the current set.
	if s.conn != nil && s.state == entity.ConnOpen {
		s.sendSubscribeLocked()
	}
}

// Snapshot returns the current observable value.
func (s *Stream) Snapshot() entity.QuoteUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.QuoteUpdate{Prices: s.prices.Clone(), State: s.state, LastError: s.lastErr}
}

// Close permanently tears the stream down: the pending reconnect timer is
// cancelled, the active connection closed and no update is delivered afterwards.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.enabled = false
	s.teardownLocked()
}

func (s *Stream) teardownLocked() {
	s.gen++
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.prices = make(entity.PriceSnapshot)
	s.lastErr = ""
	s.state = entity.ConnClosed
}

func (s *Stream) connectLocked() {
	s.gen++
	s.state = entity.ConnConnecting
	s.publishLocked()
	go s.run(s.gen)
}

func (s *Stream) run(gen int) {
	conn, err := s.dial(context.Background())

	s.mu.Lock()
	if gen != s.gen || s.closed || !s.enabled {
		s.mu.Unlock()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		s.logger.Warn("quote stream dial failed", zap.Error(err))
		s.state = entity.ConnFailed
		s.publishLocked()
		s.scheduleRetryLocked()
		s.mu.Unlock()
		return
	}

	s.conn = conn
	s.state = entity.ConnOpen
	s.delay.Reset()
	s.sendSubscribeLocked()
	s.publishLocked()
	s.mu.Unlock()

	s.readLoop(gen, conn)
}

func (s *Stream) readLoop(gen int, conn Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if gen == s.gen && !s.closed && s.enabled {
				s.logger.Warn("quote stream connection lost", zap.Error(err))
				_ = conn.Close()
				s.conn = nil
				s.scheduleRetryLocked()
			}
			s.mu.Unlock()
			return
		}
		s.handleMessage(gen, payload)
	}
}

func (s *Stream) handleMessage(gen int, payload []byte) {
	var msg inboundMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		// Transport noise, not a protocol error: drop without touching lastErr.
		s.logger.Debug("discarding malformed frame", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}

	switch msg.Type {
	case "prices":
		// Delta merge, last write wins per key. Keys absent from the message
		// keep their previous price.
		for id, price := range msg.Data {
			if price.IsNegative() {
				continue
			}
			s.prices[id] = price
		}
		s.publishLocked()
	case "subscribed":
		s.logger.Debug("subscription acknowledged", zap.Int("tokens", len(msg.TokenIDs)))
	case "connected":
		s.logger.Info("price stream ready", zap.String("message", msg.Message))
	case "error":
		s.lastErr = msg.Message
		s.publishLocked()
	default:
		s.logger.Debug("discarding frame of unknown type", zap.String("type", msg.Type))
	}
}

// scheduleRetryLocked arms exactly one reconnect attempt. Teardown cancels it,
// so a disabled stream can never be resurrected by a stale timer.
func (s *Stream) scheduleRetryLocked() {
	s.state = entity.ConnRetryScheduled
	s.publishLocked()
	d := s.delay.Duration()
	s.retry = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.retry = nil
		if s.closed || !s.enabled {
			return
		}
		s.connectLocked()
	})
}

func (s *Stream) sendSubscribeLocked() {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	if err := s.conn.WriteJSON(subscribeMsg{Action: "subscribe", TokenIDs: ids}); err != nil {
		s.logger.Warn("failed to send subscribe message", zap.Error(err))
	}
}

func (s *Stream) publishLocked() {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(entity.QuoteUpdate{
		Prices:    s.prices.Clone(),
		State:     s.state,
		LastError: s.lastErr,
	})
}

func sameSet(a, b map[entity.TokenID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
