// Package config defines the top-level configuration for the AIvestor
// backend and provides validation helpers.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by AIVESTOR_* environment variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Quotes     QuotesConfig     `toml:"quotes"`
	Generation GenerationConfig `toml:"generation"`
	Upstox     UpstoxConfig     `toml:"upstox"`
	Cache      CacheConfig      `toml:"cache"`
	Redis      RedisConfig      `toml:"redis"`
	News       NewsConfig       `toml:"news"`
	Feed       FeedConfig       `toml:"feed"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimit caps chat and generate requests per client per RateWindow.
	// Zero disables the limit.
	RateLimit    int      `toml:"rate_limit"`
	RateWindow   duration `toml:"rate_window"`
	WriteTimeout duration `toml:"write_timeout"`
}

// QuotesConfig holds the quote provider chain and its upstream credentials.
type QuotesConfig struct {
	// Order lists provider names in fallback order.
	Order         []string `toml:"order"`
	CourtesyDelay duration `toml:"courtesy_delay"`
	HTTPTimeout   duration `toml:"http_timeout"`
	CacheTTL      duration `toml:"cache_ttl"`

	YahooBaseURL        string `toml:"yahoo_base_url"`
	RapidAPIKey         string `toml:"rapidapi_key"`
	RapidAPIHost        string `toml:"rapidapi_host"`
	RapidAPIBaseURL     string `toml:"rapidapi_base_url"`
	AlphaVantageKey     string `toml:"alphavantage_key"`
	AlphaVantageBaseURL string `toml:"alphavantage_base_url"`
	PolygonKey          string `toml:"polygon_key"`
}

// GenerationConfig selects the text-generation backend.
type GenerationConfig struct {
	// Provider is "gemini" or "openai".
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	GeminiAPIKey string `toml:"gemini_api_key"`
	OpenAIAPIKey string `toml:"openai_api_key"`
	// BaseURL overrides the provider endpoint, e.g. for an OpenAI-compatible
	// gateway.
	BaseURL string `toml:"base_url"`
}

// UpstoxConfig holds the broker OAuth application credentials.
type UpstoxConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	BaseURL      string   `toml:"base_url"`
	SessionTTL   duration `toml:"session_ttl"`
}

// Enabled reports whether broker credentials are configured.
func (u UpstoxConfig) Enabled() bool {
	return u.ClientID != "" && u.ClientSecret != ""
}

// CacheConfig selects where the market data cache, broker session, rate
// limiter and signal bus live.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `toml:"backend"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// NewsConfig holds the news sources.
type NewsConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Country   string `toml:"country"`
	ScrapeURL string `toml:"scrape_url"`
	Limit     int    `toml:"limit"`
}

// FeedConfig controls the live quote poller behind /ws/quotes.
type FeedConfig struct {
	Interval duration `toml:"interval"`
	// Symbols overrides the default trending list.
	Symbols []string `toml:"symbols"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Provider names accepted in quotes.order.
const (
	ProviderYahoo        = "yahoo"
	ProviderUpstox       = "upstox"
	ProviderRapidAPI     = "rapidapi"
	ProviderAlphaVantage = "alphavantage"
	ProviderPolygon      = "polygon"
)

// Defaults returns a Config populated with sensible default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         5000,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:    30,
			RateWindow:   duration{time.Minute},
			WriteTimeout: duration{2 * time.Minute},
		},
		Quotes: QuotesConfig{
			Order: []string{
				ProviderYahoo, ProviderUpstox, ProviderRapidAPI,
				ProviderAlphaVantage, ProviderPolygon,
			},
			CourtesyDelay: duration{100 * time.Millisecond},
			HTTPTimeout:   duration{15 * time.Second},
			CacheTTL:      duration{5 * time.Minute},
		},
		Generation: GenerationConfig{
			Provider: "gemini",
		},
		Upstox: UpstoxConfig{
			RedirectURI: "http://localhost:5000/api/upstox/callback",
			SessionTTL:  duration{time.Hour},
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		News: NewsConfig{
			Country: "in",
			Limit:   10,
		},
		Feed: FeedConfig{
			Interval: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"generation_failed", "provider_exhausted", "broker_login"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// DefaultModel returns the model used when generation.model is empty.
func (g GenerationConfig) DefaultModel() string {
	if g.Model != "" {
		return g.Model
	}
	if strings.EqualFold(g.Provider, "openai") {
		return "gpt-4o-mini"
	}
	return "gemini-1.5-pro"
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"feed":   true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validProviders = []string{
	ProviderYahoo, ProviderUpstox, ProviderRapidAPI, ProviderAlphaVantage, ProviderPolygon,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, feed, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Mode != "feed" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	// Quotes
	if len(c.Quotes.Order) == 0 {
		errs = append(errs, "quotes: order must list at least one provider")
	}
	seen := make(map[string]bool, len(c.Quotes.Order))
	for _, p := range c.Quotes.Order {
		p = strings.ToLower(p)
		if !slices.Contains(validProviders, p) {
			errs = append(errs, fmt.Sprintf("quotes: unknown provider %q (valid: %s)", p, strings.Join(validProviders, ", ")))
		}
		if seen[p] {
			errs = append(errs, fmt.Sprintf("quotes: provider %q listed twice", p))
		}
		seen[p] = true
	}
	if c.Quotes.CourtesyDelay.Duration < 0 {
		errs = append(errs, "quotes: courtesy_delay must be >= 0")
	}
	if c.Quotes.HTTPTimeout.Duration <= 0 {
		errs = append(errs, "quotes: http_timeout must be > 0")
	}
	if c.Quotes.CacheTTL.Duration <= 0 {
		errs = append(errs, "quotes: cache_ttl must be > 0")
	}

	// Generation
	if c.Mode != "feed" {
		switch strings.ToLower(c.Generation.Provider) {
		case "gemini":
			if c.Generation.GeminiAPIKey == "" {
				errs = append(errs, "generation: gemini_api_key is required for provider gemini")
			}
		case "openai":
			if c.Generation.OpenAIAPIKey == "" {
				errs = append(errs, "generation: openai_api_key is required for provider openai")
			}
		default:
			errs = append(errs, fmt.Sprintf("generation: unknown provider %q (valid: gemini, openai)", c.Generation.Provider))
		}
	}

	// Upstox
	if (c.Upstox.ClientID == "") != (c.Upstox.ClientSecret == "") {
		errs = append(errs, "upstox: client_id and client_secret must be set together")
	}
	if c.Upstox.Enabled() && c.Upstox.RedirectURI == "" {
		errs = append(errs, "upstox: redirect_uri must not be empty")
	}
	if c.Upstox.SessionTTL.Duration <= 0 {
		errs = append(errs, "upstox: session_ttl must be > 0")
	}

	// Cache / Redis
	switch strings.ToLower(c.Cache.Backend) {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: memory, redis)", c.Cache.Backend))
	}
	if c.Mode == "feed" && strings.ToLower(c.Cache.Backend) != "redis" {
		errs = append(errs, "cache: feed mode publishes to other processes and needs backend redis")
	}

	// News
	if c.News.Limit < 1 {
		errs = append(errs, "news: limit must be >= 1")
	}

	// Feed
	if c.Mode != "server" && c.Feed.Interval.Duration <= 0 {
		errs = append(errs, "feed: interval must be > 0")
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
