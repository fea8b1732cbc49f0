package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Broker is the broker session surface the upstox endpoints need.
type Broker interface {
	LoginURL() string
	Callback(ctx context.Context, code string) error
	CheckAuth(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
	MarketData(ctx context.Context, syms []domain.TickerSymbol) ([]domain.Quote, error)
	HistoricalData(ctx context.Context, sym domain.TickerSymbol, window string, from, to time.Time) ([]domain.Candle, error)
}

// Canonicalizer turns user-supplied identifiers into symbols.
type Canonicalizer interface {
	Canonicalize(raw string) (domain.TickerSymbol, error)
}

const dateLayout = "2006-01-02"

// UpstoxHandler serves the broker OAuth and market-data endpoints.
type UpstoxHandler struct {
	broker   Broker
	resolver Canonicalizer
	logger   *slog.Logger
}

// NewUpstoxHandler creates an UpstoxHandler.
func NewUpstoxHandler(broker Broker, resolver Canonicalizer, logger *slog.Logger) *UpstoxHandler {
	return &UpstoxHandler{broker: broker, resolver: resolver, logger: logHandler(logger, "upstox")}
}

// Login returns the broker authorization URL.
// GET /api/upstox/login
func (h *UpstoxHandler) Login(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": h.broker.LoginURL()})
}

// Callback exchanges the authorization code for a session.
// GET /api/upstox/callback
func (h *UpstoxHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Authorization code not provided")
		return
	}
	if err := h.broker.Callback(r.Context(), code); err != nil {
		h.logger.WarnContext(r.Context(), "code exchange failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "Authentication failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Authentication successful"})
}

// CheckAuth reports whether a live session exists.
// GET /api/upstox/check-auth
func (h *UpstoxHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ok, err := h.broker.CheckAuth(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "session check failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": ok && err == nil})
}

// Logout clears the session.
// GET /api/upstox/logout
func (h *UpstoxHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.broker.Logout(r.Context()); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out from Upstox"})
}

// MarketData returns broker quotes for a comma-separated symbol list.
// GET /api/upstox/market-data?symbols=
func (h *UpstoxHandler) MarketData(w http.ResponseWriter, r *http.Request) {
	var syms []domain.TickerSymbol
	for raw := range strings.SplitSeq(r.URL.Query().Get("symbols"), ",") {
		sym, err := h.resolver.Canonicalize(raw)
		if err != nil {
			continue
		}
		syms = append(syms, sym)
	}
	if len(syms) == 0 {
		writeError(w, http.StatusBadRequest, "No symbols provided")
		return
	}

	quotes, err := h.broker.MarketData(r.Context(), syms)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": nonNil(quotes)})
}

// HistoricalData returns broker candles for one symbol over a chart window
// (1D, 5D, 30D, 6M, 1Y). from and to are optional YYYY-MM-DD dates.
// GET /api/upstox/historical-data?symbol=&interval=&from=&to=
func (h *UpstoxHandler) HistoricalData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sym, err := h.resolver.Canonicalize(q.Get("symbol"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Symbol not provided")
		return
	}
	from, ok1 := parseDate(q.Get("from"))
	to, ok2 := parseDate(q.Get("to"))
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "Dates must be YYYY-MM-DD")
		return
	}

	candles, err := h.broker.HistoricalData(r.Context(), sym, q.Get("interval"), from, to)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": nonNil(candles)})
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}
