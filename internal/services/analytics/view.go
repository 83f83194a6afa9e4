// Package analytics turns a raw, unordered trade collection into
// chronological cumulative series and a filtered, sorted display projection.
//
// The pipeline has three stages that must stay separate: chronological
// normalization, cumulative accumulation and display projection. Collapsing
// the cumulative computation into the display sort would make running totals
// depend on the user's chosen ordering, which is incorrect.
package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyboard/polyboard/internal/entity"
)

// DefaultStartingEquity seeds the equity series when the caller supplies none.
var DefaultStartingEquity = decimal.NewFromInt(1000)

// Cumulative runs stages one and two: it sorts a defensive copy of trades
// ascending by timestamp (absent or unparseable timestamps first) and walks it
// once, attaching running profit (4 decimal places) and equity (2 decimal
// places) to every row. The input slice is never mutated.
func Cumulative(trades []entity.TradeRecord, startingEquity decimal.Decimal) []entity.CumulativeTradeRecord {
	if len(trades) == 0 {
		return nil
	}
	if startingEquity.IsZero() {
		startingEquity = DefaultStartingEquity
	}

	type keyed struct {
		at  time.Time
		rec entity.TradeRecord
	}
	ordered := make([]keyed, len(trades))
	for i, tr := range trades {
		ordered[i] = keyed{at: tr.Time(), rec: tr}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].at.Before(ordered[j].at)
	})

	out := make([]entity.CumulativeTradeRecord, len(ordered))
	profit := decimal.Zero
	equity := startingEquity
	for i, k := range ordered {
		pnl := k.rec.Pnl()
		profit = profit.Add(pnl)
		equity = equity.Add(pnl)
		out[i] = entity.CumulativeTradeRecord{
			TradeRecord:      k.rec,
			CumulativeProfit: profit.Round(4),
			CumulativeEquity: equity.Round(2),
		}
	}
	return out
}

// Project runs stage three: filter the cumulative sequence, then order it for
// presentation. Every row already carries its final cumulative values, so the
// projection can be recomputed on any filter or sort change without touching
// stages one and two.
func Project(rows []entity.CumulativeTradeRecord, filter entity.ViewFilter, sortSpec entity.SortSpec) []entity.CumulativeTradeRecord {
	out := make([]entity.CumulativeTradeRecord, 0, len(rows))
	for _, row := range rows {
		if filter.Match(row) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortSpec.Less(out[i], out[j])
	})
	return out
}

// View holds the live filter/sort state over one trade collection and caches
// the cumulative sequence between input changes.
type View struct {
	mu             sync.RWMutex
	startingEquity decimal.Decimal
	raw            []entity.TradeRecord
	cumulative     []entity.CumulativeTradeRecord
	filter         entity.ViewFilter
	sortSpec       entity.SortSpec
}

// NewView creates a view seeded with the given starting equity. A zero value
// falls back to DefaultStartingEquity.
func NewView(startingEquity decimal.Decimal) *View {
	if startingEquity.IsZero() {
		startingEquity = DefaultStartingEquity
	}
	return &View{startingEquity: startingEquity}
}

// Update replaces the raw trade collection and starting equity. A zero equity
// keeps the seed the view already holds, so callers without an authoritative
// figure pass decimal.Zero. The cumulative sequence is rebuilt from scratch
// only when either actually changed; a single late-arriving or corrected trade
// shifts every subsequent running total, so there is no incremental path.
func (v *View) Update(trades []entity.TradeRecord, startingEquity decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if startingEquity.IsZero() {
		startingEquity = v.startingEquity
	}
	if startingEquity.Equal(v.startingEquity) && tradesEqual(v.raw, trades) {
		return
	}
	v.startingEquity = startingEquity
	v.raw = make([]entity.TradeRecord, len(trades))
	copy(v.raw, trades)
	v.cumulative = Cumulative(v.raw, startingEquity)
}

// SetFilter replaces the active filter. Only the projection is affected.
func (v *View) SetFilter(filter entity.ViewFilter) {
	v.mu.Lock()
	v.filter = filter
	v.mu.Unlock()
}

// SetSort replaces the active display sort. Only the projection is affected.
func (v *View) SetSort(sortSpec entity.SortSpec) {
	v.mu.Lock()
	v.sortSpec = sortSpec
	v.mu.Unlock()
}

// Cumulative returns a copy of the canonical chronological sequence.
func (v *View) Cumulative() []entity.CumulativeTradeRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]entity.CumulativeTradeRecord, len(v.cumulative))
	copy(out, v.cumulative)
	return out
}

// Rows returns the display projection under the current filter and sort.
func (v *View) Rows() []entity.CumulativeTradeRecord {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Project(v.cumulative, v.filter, v.sortSpec)
}

func tradesEqual(a, b []entity.TradeRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Timestamp != b[i].Timestamp ||
			a[i].Security != b[i].Security ||
			a[i].AutoClosed != b[i].AutoClosed ||
			!decimalPtrEqual(a[i].BuyPrice, b[i].BuyPrice) ||
			!decimalPtrEqual(a[i].SellPrice, b[i].SellPrice) ||
			!decimalPtrEqual(a[i].ProfitLoss, b[i].ProfitLoss) {
			return false
		}
	}
	return true
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
