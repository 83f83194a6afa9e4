package entity

import (
	"strings"
	"time"
)

// PnlSign selects trades by the sign of their realized P&L.
type PnlSign string

const (
	PnlAny    PnlSign = "any"
	PnlProfit PnlSign = "profit"
	PnlLoss   PnlSign = "loss"
)

// ViewFilter is a pure predicate over cumulative trade rows. The zero value
// matches everything.
type ViewFilter struct {
	// SearchText case-insensitive substring match over timestamp and security.
	SearchText string
	// Security exact outcome label match, empty means any.
	Security string
	// Sign P&L sign filter, empty is treated as PnlAny.
	Sign PnlSign
	// From / To bound the parsed trade time, nil means unbounded.
	From *time.Time
	To   *time.Time
}

// Match reports whether the row passes every active criterion.
func (f ViewFilter) Match(rec CumulativeTradeRecord) bool {
	if f.Security != "" && !strings.EqualFold(f.Security, rec.Security) {
		return false
	}

	switch f.Sign {
	case PnlProfit:
		if !rec.Pnl().IsPositive() {
			return false
		}
	case PnlLoss:
		if !rec.Pnl().IsNegative() {
			return false
		}
	}

	if f.From != nil || f.To != nil {
		ts := rec.Time()
		if f.From != nil && ts.Before(*f.From) {
			return false
		}
		if f.To != nil && !ts.Before(*f.To) {
			return false
		}
	}

	if f.SearchText != "" {
		needle := strings.ToLower(f.SearchText)
		if !strings.Contains(strings.ToLower(rec.Timestamp), needle) &&
			!strings.Contains(strings.ToLower(rec.Security), needle) {
			return false
		}
	}

	return true
}

// SortField names a sortable column of the display projection.
type SortField string

const (
	SortByTimestamp        SortField = "timestamp"
	SortByProfitLoss       SortField = "profit_loss"
	SortByCumulativeProfit SortField = "cumulative_profit"
	SortBySecurity         SortField = "security"
)

// SortOrder is the direction of a display sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortSpec orders the display projection only. It is never an input to the
// cumulative computation.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// Less compares two rows under the chosen field and order. Equal rows compare false in both
// directions so stable sorts preserve their relative order.
func (s SortSpec) Less(a, b CumulativeTradeRecord) bool {
	c := s.compare(a, b)
	if s.Order == SortDesc {
		return c > 0
	}
	return c < 0
}

func (s SortSpec) compare(a, b CumulativeTradeRecord) int {
	switch s.Field {
	case SortByProfitLoss:
		return a.Pnl().Cmp(b.Pnl())
	case SortByCumulativeProfit:
		return a.CumulativeProfit.Cmp(b.CumulativeProfit)
	case SortBySecurity:
		return strings.Compare(a.Security, b.Security)
	default:
		return a.Time().Compare(b.Time())
	}
}
