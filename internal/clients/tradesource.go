// Package clients contains HTTP collaborators of the dashboard core.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polyboard/polyboard/internal/entity"
	"github.com/polyboard/polyboard/pkg/retrier"
)

const defaultRequestTimeout = 10 * time.Second

// TradeSource queries the bot backend for trade history, server-computed
// aggregates and polled position prices. The core services depend only on the
// function signatures exposed here, never on the transport.
type TradeSource struct {
	baseURL string
	http    *http.Client
	retrier *retrier.Retrier
	logger  *zap.Logger
}

// NewTradeSource creates a client for the backend at baseURL.
func NewTradeSource(baseURL string, logger *zap.Logger) *TradeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeSource{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		retrier: retrier.New(retrier.WithAttempts(3), retrier.WithDelay(300*time.Millisecond)),
		logger:  logger,
	}
}

// AnalysisQuery narrows the trade set the backend returns.
type AnalysisQuery struct {
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Security  string
}

// Analysis fetches raw trade rows plus the aggregate metrics block from
// GET /api/analysis.
func (c *TradeSource) Analysis(ctx context.Context, q AnalysisQuery) (entity.Analysis, error) {
	params := url.Values{}
	if q.StartDate != "" {
		params.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}
	if q.Security != "" {
		params.Set("security", q.Security)
	}

	var out entity.Analysis
	if err := c.getJSON(ctx, "/api/analysis", params, &out); err != nil {
		return entity.Analysis{}, errors.Wrap(err, "fetch analysis")
	}
	return out, nil
}

// History fetches one page of order-level trade history from GET /api/trades.
// A page or pageSize of zero falls back to the backend defaults.
func (c *TradeSource) History(ctx context.Context, page, pageSize int) (entity.TradeHistory, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		params.Set("page_size", strconv.Itoa(pageSize))
	}

	var out entity.TradeHistory
	if err := c.getJSON(ctx, "/api/trades", params, &out); err != nil {
		return entity.TradeHistory{}, errors.Wrap(err, "fetch trade history")
	}
	return out, nil
}

// Summary fetches the headline stats block from GET /api/analysis/summary.
func (c *TradeSource) Summary(ctx context.Context) (entity.TradeSummary, error) {
	var out entity.TradeSummary
	if err := c.getJSON(ctx, "/api/analysis/summary", nil, &out); err != nil {
		return entity.TradeSummary{}, errors.Wrap(err, "fetch summary")
	}
	return out, nil
}

// positionRow is the subset of GET /api/positions this client consumes.
type positionRow struct {
	TokenID      string          `json:"token_id"`
	Outcome      string          `json:"outcome"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// CurrentPrices fetches the polled per-token price map from the backend's
// position list. It is the slow fallback the live stream is reconciled against.
func (c *TradeSource) CurrentPrices(ctx context.Context) (entity.PriceSnapshot, error) {
	var rows []positionRow
	if err := c.getJSON(ctx, "/api/positions", nil, &rows); err != nil {
		return nil, errors.Wrap(err, "fetch positions")
	}

	snapshot := make(entity.PriceSnapshot, len(rows))
	for _, row := range rows {
		if row.TokenID == "" || row.CurrentPrice.IsNegative() {
			continue
		}
		snapshot[entity.TokenID(row.TokenID)] = row.CurrentPrice
	}
	return snapshot, nil
}

func (c *TradeSource) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	return c.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("backend returned %s for %s", resp.Status, path)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
