package entity

import "github.com/shopspring/decimal"

// TokenID is the opaque identifier of one tradable outcome token.
type TokenID string

// PriceSnapshot maps token IDs to their last-known price. A later update for a
// key always overwrites an earlier one; keys never mentioned stay absent.
type PriceSnapshot map[TokenID]decimal.Decimal

// Clone returns an independent copy safe to hand to consumers.
func (p PriceSnapshot) Clone() PriceSnapshot {
	out := make(PriceSnapshot, len(p))
	for id, price := range p {
		out[id] = price
	}
	return out
}

// ConnState is the lifecycle state of the live price connection.
type ConnState string

const (
	// ConnClosed no connection and none wanted (disabled or torn down).
	ConnClosed ConnState = "closed"
	// ConnConnecting dial in progress.
	ConnConnecting ConnState = "connecting"
	// ConnOpen connection established, stream data is trustworthy.
	ConnOpen ConnState = "open"
	// ConnRetryScheduled connection lost, one reconnect attempt is pending.
	ConnRetryScheduled ConnState = "retry_scheduled"
	// ConnFailed last dial attempt failed; a retry will follow.
	ConnFailed ConnState = "failed"
)

// QuoteUpdate is the continuously-observable output of the quote stream:
// the current snapshot, the connection state and the last protocol error.
type QuoteUpdate struct {
	Prices    PriceSnapshot `json:"prices"`
	State     ConnState     `json:"state"`
	LastError string        `json:"last_error,omitempty"`
}
