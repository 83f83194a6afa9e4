// Command polyboard serves the monitoring dashboard for the trading bot.
// It keeps a live price subscription against the backend's websocket stream,
// reconciles it with polled position prices, and serves the cumulative trade
// analytics view over HTTP.
//
// Usage:
//
//	polyboard --config config.yaml
//	polyboard setup   (interactive wizard, writes config.gen.yaml)
//	polyboard         (uses CLI flags)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/polyboard/polyboard/config"
	"github.com/polyboard/polyboard/internal/clients"
	"github.com/polyboard/polyboard/internal/entity"
	"github.com/polyboard/polyboard/internal/events"
	"github.com/polyboard/polyboard/internal/services/analytics"
	"github.com/polyboard/polyboard/internal/services/pricefeed"
	"github.com/polyboard/polyboard/internal/services/quotestream"
	"github.com/polyboard/polyboard/internal/setup"
	"github.com/polyboard/polyboard/internal/web"
)

func main() {
	var cfg config.Config
	var err error

	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		cfg, err = config.FromFile("config.gen.yaml")
	} else {
		cfg, err = config.Get()
	}
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	source := clients.NewTradeSource(cfg.BackendURL, logger)
	broadcaster := events.NewQuoteBroadcaster(256)

	stream := quotestream.New(
		quotestream.WebsocketDialer(cfg.WebsocketURL),
		broadcaster,
		logger,
		quotestream.WithReconnectDelay(cfg.ReconnectDelay),
	)
	defer stream.Close()

	feed := pricefeed.New(source.CurrentPrices, cfg.PollPriceInterval, logger)
	// the polled position set decides which tokens the stream subscribes to;
	// Configure is idempotent, so repeating the same set costs nothing
	feed.OnTokens(func(ids []entity.TokenID) {
		stream.Configure(ids, true)
	})

	view := analytics.NewView(cfg.StartingEquity)
	analysisFn := func(ctx context.Context) (entity.Analysis, error) {
		return source.Analysis(ctx, clients.AnalysisQuery{})
	}

	server := web.NewServer(cfg.ListenAddr, feed, broadcaster, analysisFn, view, logger)
	server.History = source.History
	server.Summary = source.Summary

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedID, feedUpdates := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(feedID)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return feed.Run(ctx, feedUpdates) })
	g.Go(func() error { return server.Start(ctx) })

	logger.Info("dashboard started",
		zap.String("listen", cfg.ListenAddr),
		zap.String("backend", cfg.BackendURL),
		zap.String("stream", cfg.WebsocketURL))

	if err := g.Wait(); err != nil {
		logger.Error("dashboard stopped with error", zap.Error(err))
	}
}
