package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polyboard/polyboard/internal/entity"
)

const analysisBody = `{
  "trades": [
    {"timestamp":"2024-05-01 10:00:01","security":"Up","buy_price":0.45,"sell_price":0.55,"profit_loss":5.0},
    {"timestamp":"2024-05-01 10:00:02","security":"Down","buy_price":0.6,"sell_price":0.58,"profit_loss":-2.0}
  ],
  "metrics": {"total_trades":2,"win_rate":50.0,"sharpe_ratio":1.2,"starting_equity":1000.0}
}`

func TestTradeSource_Analysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analysis", r.URL.Path)
		require.Equal(t, "Up", r.URL.Query().Get("security"))
		fmt.Fprint(w, analysisBody)
	}))
	defer server.Close()

	c := NewTradeSource(server.URL, zap.NewNop())
	analysis, err := c.Analysis(context.Background(), AnalysisQuery{Security: "Up"})
	require.NoError(t, err)

	require.Len(t, analysis.Trades, 2)
	assert.Equal(t, "Up", analysis.Trades[0].Security)
	assert.Equal(t, "5", analysis.Trades[0].ProfitLoss.String())
	assert.Equal(t, 1000.0, analysis.Metrics.StartingEquity)
	assert.Equal(t, 1.2, analysis.Metrics.SharpeRatio)
}

func TestTradeSource_AnalysisRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, analysisBody)
	}))
	defer server.Close()

	c := NewTradeSource(server.URL, zap.NewNop())
	analysis, err := c.Analysis(context.Background(), AnalysisQuery{})
	require.NoError(t, err)
	assert.Len(t, analysis.Trades, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTradeSource_History(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/trades", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("page_size"))
		fmt.Fprint(w, `{
  "trades": [
    {"id":11,"order_id":"ord-1","market_id":"mkt-1","token_id":"tok-up","side":"BUY",
     "price":0.45,"size":10,"filled_size":10,"status":"FILLED","pnl":1.5,
     "outcome":"Up","created_at":"2024-05-01 10:00:01","updated_at":"2024-05-01 10:00:05"}
  ],
  "total": 21, "page": 2, "page_size": 10
}`)
	}))
	defer server.Close()

	c := NewTradeSource(server.URL, zap.NewNop())
	history, err := c.History(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 21, history.Total)
	assert.Equal(t, 2, history.Page)
	require.Len(t, history.Trades, 1)
	assert.Equal(t, "ord-1", history.Trades[0].OrderID)
	assert.Equal(t, entity.TokenID("tok-up"), history.Trades[0].TokenID)
	assert.Equal(t, "1.5", history.Trades[0].Pnl.String())
}

func TestTradeSource_Summary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analysis/summary", r.URL.Path)
		fmt.Fprint(w, `{"total_trades":8,"wins":5,"losses":3,"win_rate":62.5,"total_pnl":12.3456,"current_balance":1012.3456}`)
	}))
	defer server.Close()

	c := NewTradeSource(server.URL, zap.NewNop())
	summary, err := c.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, summary.TotalTrades)
	assert.Equal(t, 62.5, summary.WinRate)
	assert.Equal(t, "12.3456", summary.TotalPnl.String())
	assert.Equal(t, "1012.3456", summary.CurrentBalance.String())
}

func TestTradeSource_CurrentPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/positions", r.URL.Path)
		fmt.Fprint(w, `[
  {"token_id":"tok-up","outcome":"Up","current_price":0.55},
  {"token_id":"tok-down","outcome":"Down","current_price":0.45},
  {"token_id":"","outcome":"stale","current_price":0.1}
]`)
	}))
	defer server.Close()

	c := NewTradeSource(server.URL, zap.NewNop())
	prices, err := c.CurrentPrices(context.Background())
	require.NoError(t, err)

	require.Len(t, prices, 2)
	assert.Equal(t, "0.55", prices[entity.TokenID("tok-up")].String())
	assert.Equal(t, "0.45", prices[entity.TokenID("tok-down")].String())
}

func TestTradeSource_BackendDown(t *testing.T) {
	c := NewTradeSource("http://127.0.0.1:1", zap.NewNop())
	_, err := c.Analysis(context.Background(), AnalysisQuery{})
	require.Error(t, err)
}
