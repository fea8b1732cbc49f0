package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Sarish05/AIvestor/internal/cache/memory"
	"github.com/Sarish05/AIvestor/internal/cache/redis"
	"github.com/Sarish05/AIvestor/internal/config"
	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/llm"
	"github.com/Sarish05/AIvestor/internal/notify"
	"github.com/Sarish05/AIvestor/internal/platform/alphavantage"
	"github.com/Sarish05/AIvestor/internal/platform/etmarkets"
	"github.com/Sarish05/AIvestor/internal/platform/httpx"
	"github.com/Sarish05/AIvestor/internal/platform/newsapi"
	"github.com/Sarish05/AIvestor/internal/platform/polygon"
	"github.com/Sarish05/AIvestor/internal/platform/rapidapi"
	"github.com/Sarish05/AIvestor/internal/platform/upstox"
	"github.com/Sarish05/AIvestor/internal/platform/yahoo"
	"github.com/Sarish05/AIvestor/internal/service"
	"github.com/Sarish05/AIvestor/internal/symbol"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Caches
	ChainCache  domain.MarketDataCache
	BrokerCache domain.MarketDataCache
	Sessions    domain.SessionStore
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Services
	Resolver *symbol.Resolver
	Quotes   *service.QuoteService
	News     *service.NewsService
	Broker   *service.BrokerService // nil when Upstox is not configured
	Chat     *service.ChatService   // nil in feed mode

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Resolver: symbol.New()}
	httpClient := httpx.New(cfg.Quotes.HTTPTimeout.Duration)
	cacheTTL := cfg.Quotes.CacheTTL.Duration

	// --- Cache backend ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.ChainCache = redis.NewMarketCache(redisClient.Scoped("chain"), cacheTTL)
		deps.BrokerCache = redis.NewMarketCache(redisClient.Scoped("broker"), cacheTTL)
		deps.Sessions = redis.NewSessionStore(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	default:
		deps.ChainCache = memory.NewMarketCache(cacheTTL)
		deps.BrokerCache = memory.NewMarketCache(cacheTTL)
		deps.Sessions = memory.NewSessionStore()
		deps.RateLimiter = memory.NewRateLimiter()
		deps.SignalBus = memory.NewBus()
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			notify.DefaultTelegramAPI,
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
			httpClient,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, httpClient))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Broker session ---
	// The Upstox quote source borrows the broker session's access token, so
	// the broker service is built before the chain.
	var upstoxSource *upstox.Source
	if cfg.Upstox.Enabled() {
		client := upstox.NewClient(upstox.Config{
			ClientID:     cfg.Upstox.ClientID,
			ClientSecret: cfg.Upstox.ClientSecret,
			RedirectURI:  cfg.Upstox.RedirectURI,
			BaseURL:      cfg.Upstox.BaseURL,
		}, httpClient)
		deps.Broker = service.NewBrokerService(service.BrokerServiceConfig{
			Client:   client,
			Store:    deps.Sessions,
			Cache:    deps.BrokerCache,
			Resolver: deps.Resolver,
			TTL:      cfg.Upstox.SessionTTL.Duration,
			Alerts:   deps.Notifier,
			Logger:   logger,
		})
		upstoxSource = upstox.NewSource(client, deps.Broker)
	}

	// --- Quote chain ---
	sources, history := buildChain(cfg, httpClient, upstoxSource, logger)
	deps.Quotes = service.NewQuoteService(service.QuoteServiceConfig{
		Sources:       sources,
		History:       history,
		Cache:         deps.ChainCache,
		Resolver:      deps.Resolver,
		CourtesyDelay: cfg.Quotes.CourtesyDelay.Duration,
		Alerts:        deps.Notifier,
		Logger:        logger,
	})

	// --- News ---
	var newsSources []domain.NewsSource
	if cfg.News.APIKey != "" {
		newsSources = append(newsSources, newsapi.NewClient(cfg.News.APIKey, cfg.News.BaseURL, cfg.News.Country, httpClient))
	}
	newsSources = append(newsSources, etmarkets.NewScraper(cfg.News.ScrapeURL, httpClient))
	deps.News = service.NewNewsService(newsSources, cfg.News.Limit, logger)

	// --- Generation (not needed by the feed process) ---
	if strings.ToLower(cfg.Mode) != "feed" {
		generator, err := buildGenerator(ctx, cfg.Generation)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: generator: %w", err)
		}
		deps.Chat = service.NewChatService(deps.Resolver, deps.Quotes, deps.News, generator, deps.Notifier, logger)
	}

	return deps, cleanup, nil
}

// buildChain instantiates the quote providers in the configured order.
// Providers without credentials are skipped. Yahoo needs none and is always
// available when listed.
func buildChain(cfg *config.Config, httpClient *http.Client, upstoxSource *upstox.Source, logger *slog.Logger) ([]domain.QuoteSource, []domain.HistorySource) {
	var (
		sources []domain.QuoteSource
		history []domain.HistorySource
	)
	for _, name := range cfg.Quotes.Order {
		switch strings.ToLower(name) {
		case config.ProviderYahoo:
			c := yahoo.NewClient(cfg.Quotes.YahooBaseURL, httpClient)
			sources = append(sources, c)
			history = append(history, c)
		case config.ProviderUpstox:
			if upstoxSource == nil {
				continue
			}
			sources = append(sources, upstoxSource)
			history = append(history, upstoxSource)
		case config.ProviderRapidAPI:
			if cfg.Quotes.RapidAPIKey == "" {
				continue
			}
			sources = append(sources, rapidapi.NewClient(cfg.Quotes.RapidAPIKey, cfg.Quotes.RapidAPIHost, cfg.Quotes.RapidAPIBaseURL, httpClient))
		case config.ProviderAlphaVantage:
			if cfg.Quotes.AlphaVantageKey == "" {
				continue
			}
			c := alphavantage.NewClient(cfg.Quotes.AlphaVantageKey, cfg.Quotes.AlphaVantageBaseURL, httpClient)
			sources = append(sources, c)
			history = append(history, c)
		case config.ProviderPolygon:
			if cfg.Quotes.PolygonKey == "" {
				continue
			}
			c := polygon.NewClient(cfg.Quotes.PolygonKey)
			sources = append(sources, c)
			history = append(history, c)
		}
	}

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	logger.Info("quote chain assembled",
		slog.String("component", "app"),
		slog.Any("providers", names),
	)
	return sources, history
}

// buildGenerator returns the configured text-generation backend. The shared
// HTTP client is not reused here because its timeout would cut long streams.
func buildGenerator(ctx context.Context, cfg config.GenerationConfig) (domain.Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.DefaultModel(),
			BaseURL: cfg.BaseURL,
		})
	case "gemini", "":
		return llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.DefaultModel(),
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
