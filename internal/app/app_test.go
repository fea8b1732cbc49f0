package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Defaults()
	cfg.Generation.GeminiAPIKey = "g-key"
	cfg.Quotes.YahooBaseURL = upstream.URL
	cfg.News.ScrapeURL = upstream.URL
	return &cfg
}

func TestWireMemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upstox.ClientID = "id"
	cfg.Upstox.ClientSecret = "secret"
	cfg.Quotes.AlphaVantageKey = "av"

	deps, cleanup, err := Wire(t.Context(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Broker)
	assert.NotNil(t, deps.Chat)
	assert.NotSame(t, deps.ChainCache, deps.BrokerCache)
	// Providers without credentials drop out of the chain.
	assert.Equal(t, []string{"yahoo", "upstox", "alphavantage"}, deps.Quotes.SourceNames())
}

func TestWireRedisFeedMode(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Mode = "feed"
	cfg.Generation.GeminiAPIKey = ""
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()
	cfg.Quotes.Order = []string{"upstox", "polygon", "yahoo"}

	deps, cleanup, err := Wire(t.Context(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, deps.Broker)
	assert.Nil(t, deps.Chat)
	assert.Equal(t, []string{"yahoo"}, deps.Quotes.SourceNames())

	msgs, err := deps.SignalBus.Subscribe(t.Context(), "quotes")
	require.NoError(t, err)
	require.NoError(t, deps.SignalBus.Publish(t.Context(), "quotes", []byte("x")))
	select {
	case got := <-msgs:
		assert.Equal(t, "x", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("no message on the redis bus")
	}
}

func TestWireRedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addr = "127.0.0.1:1"

	_, _, err := Wire(t.Context(), cfg)
	require.ErrorContains(t, err, "wire: redis")
}

func TestBuildGeneratorUnknownProvider(t *testing.T) {
	_, err := buildGenerator(t.Context(), config.GenerationConfig{Provider: "llama"})
	require.Error(t, err)
}

func TestRunFullModeStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 0
	cfg.Feed.Interval.Duration = 50 * time.Millisecond

	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer a.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))
}

func TestRunRejectsUnknownMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "backtest"

	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer a.Close()
	require.ErrorContains(t, a.Run(t.Context()), "unsupported mode")
}
