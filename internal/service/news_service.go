package service

import (
	"context"
	"log/slog"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// DefaultNewsLimit caps how many headlines one lookup returns.
const DefaultNewsLimit = 10

// NewsService returns market headlines from the first source that has any.
// It never fails: when every source errors the result is empty.
type NewsService struct {
	sources []domain.NewsSource
	limit   int
	logger  *slog.Logger
}

// NewNewsService creates a NewsService trying sources in order.
func NewNewsService(sources []domain.NewsSource, limit int, logger *slog.Logger) *NewsService {
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	return &NewsService{
		sources: sources,
		limit:   limit,
		logger:  logger.With(slog.String("component", "news_service")),
	}
}

// Latest returns headlines for query, or general market news when query is
// empty.
func (s *NewsService) Latest(ctx context.Context, query string) []domain.NewsItem {
	for _, src := range s.sources {
		items, err := src.News(ctx, query, s.limit)
		if err != nil {
			s.logger.WarnContext(ctx, "news source failed",
				slog.String("source", src.Name()),
				slog.String("query", query),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(items) > 0 {
			if len(items) > s.limit {
				items = items[:s.limit]
			}
			return items
		}
	}
	return []domain.NewsItem{}
}
