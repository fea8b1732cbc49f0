package handler

import (
	"context"
	"net/http"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Headlines returns recent news, never failing.
type Headlines interface {
	Latest(ctx context.Context, query string) []domain.NewsItem
}

// NewsHandler serves market news.
type NewsHandler struct {
	news Headlines
}

// NewNewsHandler creates a NewsHandler.
func NewNewsHandler(news Headlines) *NewsHandler {
	return &NewsHandler{news: news}
}

// Latest returns the latest headlines, optionally filtered by q.
// GET /api/news
func (h *NewsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	items := h.news.Latest(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{"news": nonNil(items)})
}
