package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/server/handler"
	"github.com/Sarish05/AIvestor/internal/server/middleware"
	"github.com/Sarish05/AIvestor/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	// RateLimit is the number of chat/generate requests one client may make
	// per RateWindow. Zero disables the limit.
	RateLimit  int
	RateWindow time.Duration
	// WriteTimeout bounds a whole response, streamed answers included.
	WriteTimeout time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Status *handler.StatusHandler
	Chat   *handler.ChatHandler
	Stocks *handler.StockHandler
	News   *handler.NewsHandler
	Upstox *handler.UpstoxHandler
}

// openPaths never require the API key.
var openPaths = []string{"/api/health", "/api/upstox/callback", "/ws/"}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, rate limiting) and attaches
// the WebSocket hub. limiter and wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health and status.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	if handlers.Status != nil {
		mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	}

	// Question answering, rate limited per client.
	limited := func(h http.HandlerFunc) http.Handler { return h }
	if limiter != nil && cfg.RateLimit > 0 {
		rl := middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)
		limited = func(h http.HandlerFunc) http.Handler { return rl(h) }
	}
	mux.Handle("POST /api/chat", limited(handlers.Chat.Chat))
	mux.Handle("POST /api/generate", limited(handlers.Chat.Generate))

	// News.
	mux.HandleFunc("GET /api/news", handlers.News.Latest)

	// Quotes and history.
	mux.HandleFunc("GET /api/stock/{symbol}", handlers.Stocks.GetStock)
	mux.HandleFunc("GET /api/stock/{first}/{second}", handlers.Stocks.Nested)
	mux.HandleFunc("POST /api/stocks/multiple", handlers.Stocks.GetMultiple)
	mux.HandleFunc("GET /api/trending", handlers.Stocks.Trending)
	mux.HandleFunc("GET /api/market/top-stocks", handlers.Stocks.TopStocks)

	// Broker session and market data.
	if handlers.Upstox != nil {
		mux.HandleFunc("GET /api/upstox/login", handlers.Upstox.Login)
		mux.HandleFunc("GET /api/upstox/callback", handlers.Upstox.Callback)
		mux.HandleFunc("GET /api/upstox/check-auth", handlers.Upstox.CheckAuth)
		mux.HandleFunc("GET /api/upstox/logout", handlers.Upstox.Logout)
		mux.HandleFunc("GET /api/upstox/market-data", handlers.Upstox.MarketData)
		mux.HandleFunc("GET /api/upstox/historical-data", handlers.Upstox.HistoricalData)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws/quotes", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, openPaths...)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server: starting", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
