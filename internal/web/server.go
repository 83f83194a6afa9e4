// Package web exposes the dashboard HTTP endpoints: the HTML shell, a live
// quote stream over SSE and the filtered trade-analysis view.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/polyboard/polyboard/internal/entity"
	"github.com/polyboard/polyboard/internal/events"
	"github.com/polyboard/polyboard/internal/services/analytics"
	"github.com/polyboard/polyboard/internal/services/pricefeed"
)

const heartbeatInterval = 30 * time.Second

// AnalysisFunc fetches the raw trade rows plus server-computed aggregates.
type AnalysisFunc func(ctx context.Context) (entity.Analysis, error)

// HistoryFunc fetches one page of order-level trade history.
type HistoryFunc func(ctx context.Context, page, pageSize int) (entity.TradeHistory, error)

// SummaryFunc fetches the backend's headline stats block.
type SummaryFunc func(ctx context.Context) (entity.TradeSummary, error)

// Server serves the dashboard UI and its data endpoints. History and Summary
// are optional; their endpoints answer 503 when unset.
type Server struct {
	Addr        string
	Feed        *pricefeed.Feed
	Broadcaster *events.QuoteBroadcaster
	Analysis    AnalysisFunc
	History     HistoryFunc
	Summary     SummaryFunc
	View        *analytics.View
	Logger      *zap.Logger
}

// NewServer creates a new dashboard server.
func NewServer(addr string, feed *pricefeed.Feed, bc *events.QuoteBroadcaster, analysis AnalysisFunc, view *analytics.View, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Feed: feed, Broadcaster: bc, Analysis: analysis, View: view, Logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/quotes/stream", s.handleQuoteStream)
	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/trades", s.handleHistory)
	mux.HandleFunc("/api/summary", s.handleSummary)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// handleQuoteStream pushes the merged price snapshot and connection state as
// SSE events: one on connect, one per stream update, plus heartbeats.
func (s *Server) handleQuoteStream(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil || s.Broadcaster == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "quote feed not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, updates := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(subID)
	s.Logger.Debug("quote stream subscriber connected", zap.String("sub", subID.String()))

	send := func() error {
		payload, err := json.Marshal(s.Feed.Snapshot())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: quotes\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	if err := send(); err != nil {
		s.Logger.Warn("quote stream initial send failed", zap.Error(err))
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := send(); err != nil {
				s.Logger.Warn("quote stream send failed", zap.Error(err), zap.String("sub", subID.String()))
				return
			}
		}
	}
}

// handleAnalysis fetches the raw trade collection, reruns the cumulative
// pipeline only if it changed, and answers with the filtered, sorted
// projection plus the pass-through metrics block.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.Analysis == nil || s.View == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "analysis source not available")
		return
	}

	analysis, err := s.Analysis(r.Context())
	if err != nil {
		s.Logger.Warn("analysis fetch failed", zap.Error(err))
		http.Error(w, "failed to load analysis", http.StatusBadGateway)
		return
	}

	// The backend's figure wins; zero keeps the view's configured seed.
	startingEquity := decimal.Zero
	if analysis.Metrics.StartingEquity > 0 {
		startingEquity = decimal.NewFromFloat(analysis.Metrics.StartingEquity)
	}
	s.View.Update(analysis.Trades, startingEquity)

	// Filter and sort are request-scoped: projecting here keeps concurrent
	// requests with different query parameters from seeing each other's rows.
	rows := analytics.Project(s.View.Cumulative(), filterFromQuery(r), sortFromQuery(r))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Rows    []entity.CumulativeTradeRecord `json:"rows"`
		Metrics entity.PerformanceMetrics      `json:"metrics"`
	}{
		Rows:    rows,
		Metrics: analysis.Metrics,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "trade history not available")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	history, err := s.History(r.Context(), page, pageSize)
	if err != nil {
		s.Logger.Warn("trade history fetch failed", zap.Error(err))
		http.Error(w, "failed to load trade history", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(history)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.Summary == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "summary not available")
		return
	}

	summary, err := s.Summary(r.Context())
	if err != nil {
		s.Logger.Warn("summary fetch failed", zap.Error(err))
		http.Error(w, "failed to load summary", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func filterFromQuery(r *http.Request) entity.ViewFilter {
	q := r.URL.Query()
	f := entity.ViewFilter{
		SearchText: q.Get("search"),
		Security:   q.Get("security"),
		Sign:       entity.PnlSign(q.Get("sign")),
	}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		f.From = &from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		// inclusive end date
		end := to.Add(24 * time.Hour)
		f.To = &end
	}
	return f
}

func sortFromQuery(r *http.Request) entity.SortSpec {
	q := r.URL.Query()
	spec := entity.SortSpec{
		Field: entity.SortField(q.Get("sort")),
		Order: entity.SortOrder(q.Get("order")),
	}
	if spec.Field == "" {
		spec.Field = entity.SortByTimestamp
	}
	if spec.Order != entity.SortDesc {
		spec.Order = entity.SortAsc
	}
	return spec
}
