package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/feed"
	"github.com/Sarish05/AIvestor/internal/server"
	"github.com/Sarish05/AIvestor/internal/server/handler"
	"github.com/Sarish05/AIvestor/internal/server/ws"
	"github.com/Sarish05/AIvestor/internal/service"
)

// shutdownTimeout bounds how long in-flight requests (including open answer
// streams) get to finish after the context is cancelled.
const shutdownTimeout = 10 * time.Second

// ServerMode runs the HTTP API and the /ws/quotes hub. Quote snapshots reach
// the hub from a separate feed process over the shared bus.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// FeedMode runs only the quote poller, publishing snapshots to the bus.
func (a *App) FeedMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting feed mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPoller(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the HTTP API, the hub and the poller in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPoller(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

func (a *App) startPoller(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	symbols := service.TrendingSymbols
	if len(a.cfg.Feed.Symbols) > 0 {
		symbols = make([]domain.TickerSymbol, 0, len(a.cfg.Feed.Symbols))
		for _, raw := range a.cfg.Feed.Symbols {
			sym, err := deps.Resolver.Canonicalize(raw)
			if err != nil {
				a.logger.WarnContext(ctx, "feed: skipping symbol",
					slog.String("symbol", raw),
					slog.String("error", err.Error()),
				)
				continue
			}
			symbols = append(symbols, sym)
		}
	}

	poller := feed.NewPoller(deps.Quotes, deps.SignalBus, symbols, a.cfg.Feed.Interval.Duration, a.logger)
	g.Go(func() error {
		return poller.Run(ctx)
	})
}

func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	started := time.Now().UTC()

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		Channels:  []string{feed.QuotesChannel},
		StartedAt: started,
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	status := handler.StatusSources{
		Providers: deps.Quotes.SourceNames,
		Clients:   hub.Clients,
		CacheUpdated: func(ctx context.Context) time.Time {
			t, err := deps.ChainCache.LastUpdated(ctx)
			if err != nil {
				return time.Time{}
			}
			return t
		},
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(),
		Chat:   handler.NewChatHandler(deps.Chat, a.logger),
		Stocks: handler.NewStockHandler(deps.Quotes, a.logger),
		News:   handler.NewNewsHandler(deps.News),
	}
	if deps.Broker != nil {
		handlers.Upstox = handler.NewUpstoxHandler(deps.Broker, deps.Resolver, a.logger)
		status.BrokerState = deps.Broker.State
	}
	handlers.Status = handler.NewStatusHandler(a.cfg.Mode, started, status)

	srv := server.NewServer(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		APIKey:       a.cfg.Server.APIKey,
		RateLimit:    a.cfg.Server.RateLimit,
		RateWindow:   a.cfg.Server.RateWindow.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
	}, handlers, deps.RateLimiter, hub, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
