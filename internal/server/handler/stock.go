package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Quotes is the quote surface the stock endpoints need.
type Quotes interface {
	Lookup(ctx context.Context, raw string) (domain.Quote, error)
	LookupMany(ctx context.Context, raw []string) []domain.Quote
	LookupHistory(ctx context.Context, raw, period, interval string) ([]domain.Candle, error)
	Search(ctx context.Context, query string) []domain.Quote
	Trending(ctx context.Context) []domain.Quote
	TopStocks(ctx context.Context) []domain.Quote
}

// StockHandler serves quote, history and list endpoints.
type StockHandler struct {
	quotes Quotes
	logger *slog.Logger
}

// NewStockHandler creates a StockHandler.
func NewStockHandler(quotes Quotes, logger *slog.Logger) *StockHandler {
	return &StockHandler{quotes: quotes, logger: logHandler(logger, "stock")}
}

// GetStock returns the quote for a ticker or company name.
// GET /api/stock/{symbol}
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	raw := pathParam(r, "symbol")
	q, err := h.quotes.Lookup(r.Context(), raw)
	if err != nil {
		h.notFoundOr(w, r, err, raw)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Nested dispatches the two-segment stock routes, GET
// /api/stock/search/{query} and GET /api/stock/{symbol}/history, which
// overlap as ServeMux patterns.
// GET /api/stock/{first}/{second}
func (h *StockHandler) Nested(w http.ResponseWriter, r *http.Request) {
	first, second := pathParam(r, "first"), pathParam(r, "second")
	switch {
	case first == "search":
		h.search(w, r, second)
	case second == "history":
		h.history(w, r, first)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *StockHandler) history(w http.ResponseWriter, r *http.Request, raw string) {
	q := r.URL.Query()
	candles, err := h.quotes.LookupHistory(r.Context(), raw, q.Get("period"), q.Get("interval"))
	if err != nil {
		h.notFoundOr(w, r, err, raw)
		return
	}
	writeJSON(w, http.StatusOK, candles)
}

func (h *StockHandler) search(w http.ResponseWriter, r *http.Request, query string) {
	writeJSON(w, http.StatusOK, nonNil(h.quotes.Search(r.Context(), query)))
}

type multipleBody struct {
	Symbols []string `json:"symbols"`
}

// GetMultiple returns quotes for several identifiers, omitting those that
// failed. Each quote's symbol is the canonical ticker of the identifier the
// caller sent, not the identifier itself: "reliance" yields RELIANCE.NS.
// POST /api/stocks/multiple
func (h *StockHandler) GetMultiple(w http.ResponseWriter, r *http.Request) {
	var body multipleBody
	if err := decodeJSON(w, r, &body); err != nil || len(body.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "Symbols array is required")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(h.quotes.LookupMany(r.Context(), body.Symbols)))
}

// Trending returns the curated trending list.
// GET /api/trending
func (h *StockHandler) Trending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.quotes.Trending(r.Context())))
}

// TopStocks returns the large-cap list, highest price first.
// GET /api/market/top-stocks
func (h *StockHandler) TopStocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.quotes.TopStocks(r.Context())))
}

func (h *StockHandler) notFoundOr(w http.ResponseWriter, r *http.Request, err error, raw string) {
	if errors.Is(err, domain.ErrSymbolNotFound) {
		writeError(w, http.StatusNotFound, "Could not retrieve data for "+raw)
		return
	}
	writeDomainError(w, r, h.logger, err)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
