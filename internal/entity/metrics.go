package entity

// PerformanceMetrics is the aggregate block computed by the backend query
// service. The dashboard core never recomputes these figures, it only passes
// them through to presentation. StartingEquity is the single field the
// analytics view consumes, as the seed of the cumulative equity series.
type PerformanceMetrics struct {
	TotalTrades      int       `json:"total_trades"`
	WinningTrades    int       `json:"winning_trades"`
	LosingTrades     int       `json:"losing_trades"`
	WinRate          float64   `json:"win_rate"`
	TotalPnl         float64   `json:"total_pnl"`
	AvgProfit        float64   `json:"avg_profit"`
	AvgLoss          float64   `json:"avg_loss"`
	ProfitFactor     float64   `json:"profit_factor"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	MaxDrawdownPct   float64   `json:"max_drawdown_pct"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	SortinoRatio     float64   `json:"sortino_ratio"`
	AvgTradeDuration float64   `json:"avg_trade_duration"`
	BestTrade        float64   `json:"best_trade"`
	WorstTrade       float64   `json:"worst_trade"`
	CurrentEquity    float64   `json:"current_equity"`
	StartingEquity   float64   `json:"starting_equity"`
	EquityCurve      []float64 `json:"equity_curve"`
	DrawdownCurve    []float64 `json:"drawdown_curve"`
	Timestamps       []string  `json:"timestamps"`
}

// Analysis bundles the raw trade rows with their server-computed aggregates,
// mirroring the backend /api/analysis response.
type Analysis struct {
	Trades  []TradeRecord      `json:"trades"`
	Metrics PerformanceMetrics `json:"metrics"`
}
