// Package entity defines core data structures used throughout the dashboard core.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeTimeLayout is the timestamp format the backend renders trade rows with.
const TradeTimeLayout = "2006-01-02 15:04:05"

// TradeRecord is one raw trade row as delivered by the backend query service.
// Rows carry no stable trade ID in this view, identity is positional.
type TradeRecord struct {
	// Timestamp backend-rendered time string, kept verbatim for display.
	Timestamp string `json:"timestamp"`
	// Security outcome label of the traded token, e.g. "Up" or "Down".
	Security string `json:"security"`
	// BuyPrice entry price, nil when the backend sent none.
	BuyPrice *decimal.Decimal `json:"buy_price"`
	// SellPrice exit price, nil when the backend sent none.
	SellPrice *decimal.Decimal `json:"sell_price"`
	// ProfitLoss realized P&L, nil when the backend sent none.
	ProfitLoss *decimal.Decimal `json:"profit_loss"`
	// AutoClosed marks positions force-closed at market end.
	AutoClosed bool `json:"auto_closed,omitempty"`
}

// Time parses the raw timestamp. Absent or unparseable timestamps map to the
// zero time so such rows order before every well-formed row.
func (t *TradeRecord) Time() time.Time {
	if t.Timestamp == "" {
		return time.Time{}
	}
	ts, err := time.Parse(TradeTimeLayout, t.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Pnl returns the realized profit/loss, zero when the backend sent none.
func (t *TradeRecord) Pnl() decimal.Decimal {
	if t.ProfitLoss == nil {
		return decimal.Zero
	}
	return *t.ProfitLoss
}

// ExecutedTrade is one order-level row from the backend trade history, richer
// than the analysis rows: it carries order identity and fill state.
type ExecutedTrade struct {
	ID         int64            `json:"id"`
	OrderID    string           `json:"order_id"`
	MarketID   string           `json:"market_id"`
	TokenID    TokenID          `json:"token_id"`
	Side       string           `json:"side"`
	Price      decimal.Decimal  `json:"price"`
	Size       decimal.Decimal  `json:"size"`
	FilledSize decimal.Decimal  `json:"filled_size"`
	Status     string           `json:"status"`
	Pnl        *decimal.Decimal `json:"pnl"`
	Outcome    string           `json:"outcome"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

// TradeHistory is one page of executed trades.
type TradeHistory struct {
	Trades   []ExecutedTrade `json:"trades"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// TradeSummary is the backend's quick headline stats block.
type TradeSummary struct {
	TotalTrades    int             `json:"total_trades"`
	Wins           int             `json:"wins"`
	Losses         int             `json:"losses"`
	WinRate        float64         `json:"win_rate"`
	TotalPnl       decimal.Decimal `json:"total_pnl"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

// CumulativeTradeRecord is a TradeRecord extended with running totals computed
// over chronological order. The totals are attached once per recomputation and
// never depend on the display ordering.
type CumulativeTradeRecord struct {
	TradeRecord
	// CumulativeProfit running P&L sum, rounded to 4 decimal places.
	CumulativeProfit decimal.Decimal `json:"cumulative_profit"`
	// CumulativeEquity starting equity plus running P&L, rounded to 2 decimal places.
	CumulativeEquity decimal.Decimal `json:"cumulative_equity"`
}
