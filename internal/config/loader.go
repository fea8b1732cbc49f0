package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies AIVESTOR_* environment variable overrides, and
// returns the final Config. A missing file leaves the defaults in place. The
// returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known AIVESTOR_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file. Unprefixed compatibility aliases are applied first so the
// AIVESTOR_* name wins when both are set.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "PORT") // platform-assigned port
	setInt(&cfg.Server.Port, "AIVESTOR_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "AIVESTOR_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "AIVESTOR_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "AIVESTOR_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "AIVESTOR_SERVER_RATE_WINDOW")
	setDuration(&cfg.Server.WriteTimeout, "AIVESTOR_SERVER_WRITE_TIMEOUT")

	// ── Quotes ──
	setStringSlice(&cfg.Quotes.Order, "AIVESTOR_QUOTES_ORDER")
	setDuration(&cfg.Quotes.CourtesyDelay, "AIVESTOR_QUOTES_COURTESY_DELAY")
	setDuration(&cfg.Quotes.HTTPTimeout, "AIVESTOR_QUOTES_HTTP_TIMEOUT")
	setDuration(&cfg.Quotes.CacheTTL, "AIVESTOR_QUOTES_CACHE_TTL")
	setStr(&cfg.Quotes.YahooBaseURL, "AIVESTOR_QUOTES_YAHOO_BASE_URL")
	setStr(&cfg.Quotes.RapidAPIKey, "RAPIDAPI_KEY") // compatibility alias
	setStr(&cfg.Quotes.RapidAPIKey, "AIVESTOR_QUOTES_RAPIDAPI_KEY")
	setStr(&cfg.Quotes.RapidAPIHost, "AIVESTOR_QUOTES_RAPIDAPI_HOST")
	setStr(&cfg.Quotes.RapidAPIBaseURL, "AIVESTOR_QUOTES_RAPIDAPI_BASE_URL")
	setStr(&cfg.Quotes.AlphaVantageKey, "ALPHA_VANTAGE_API_KEY") // compatibility alias
	setStr(&cfg.Quotes.AlphaVantageKey, "AIVESTOR_QUOTES_ALPHAVANTAGE_KEY")
	setStr(&cfg.Quotes.AlphaVantageBaseURL, "AIVESTOR_QUOTES_ALPHAVANTAGE_BASE_URL")
	setStr(&cfg.Quotes.PolygonKey, "AIVESTOR_QUOTES_POLYGON_KEY")

	// ── Generation ──
	setStr(&cfg.Generation.Provider, "AIVESTOR_GENERATION_PROVIDER")
	setStr(&cfg.Generation.Model, "AIVESTOR_GENERATION_MODEL")
	setStr(&cfg.Generation.GeminiAPIKey, "GEMINI_API_KEY") // compatibility alias
	setStr(&cfg.Generation.GeminiAPIKey, "AIVESTOR_GENERATION_GEMINI_API_KEY")
	setStr(&cfg.Generation.OpenAIAPIKey, "AIVESTOR_GENERATION_OPENAI_API_KEY")
	setStr(&cfg.Generation.BaseURL, "AIVESTOR_GENERATION_BASE_URL")

	// ── Upstox ──
	setStr(&cfg.Upstox.ClientID, "UPSTOX_API_KEY") // compatibility alias
	setStr(&cfg.Upstox.ClientID, "AIVESTOR_UPSTOX_CLIENT_ID")
	setStr(&cfg.Upstox.ClientSecret, "UPSTOX_API_SECRET") // compatibility alias
	setStr(&cfg.Upstox.ClientSecret, "AIVESTOR_UPSTOX_CLIENT_SECRET")
	setStr(&cfg.Upstox.RedirectURI, "AIVESTOR_UPSTOX_REDIRECT_URI")
	setStr(&cfg.Upstox.BaseURL, "AIVESTOR_UPSTOX_BASE_URL")
	setDuration(&cfg.Upstox.SessionTTL, "AIVESTOR_UPSTOX_SESSION_TTL")

	// ── Cache / Redis ──
	setStr(&cfg.Cache.Backend, "AIVESTOR_CACHE_BACKEND")
	setStr(&cfg.Redis.Addr, "AIVESTOR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "AIVESTOR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "AIVESTOR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "AIVESTOR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "AIVESTOR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "AIVESTOR_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "AIVESTOR_REDIS_KEY_PREFIX")

	// ── News ──
	setStr(&cfg.News.APIKey, "NEWS_API_KEY") // compatibility alias
	setStr(&cfg.News.APIKey, "AIVESTOR_NEWS_API_KEY")
	setStr(&cfg.News.BaseURL, "AIVESTOR_NEWS_BASE_URL")
	setStr(&cfg.News.Country, "AIVESTOR_NEWS_COUNTRY")
	setStr(&cfg.News.ScrapeURL, "AIVESTOR_NEWS_SCRAPE_URL")
	setInt(&cfg.News.Limit, "AIVESTOR_NEWS_LIMIT")

	// ── Feed ──
	setDuration(&cfg.Feed.Interval, "AIVESTOR_FEED_INTERVAL")
	setStringSlice(&cfg.Feed.Symbols, "AIVESTOR_FEED_SYMBOLS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "AIVESTOR_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "AIVESTOR_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "AIVESTOR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "AIVESTOR_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "AIVESTOR_MODE")
	setStr(&cfg.LogLevel, "AIVESTOR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
