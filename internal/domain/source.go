package domain

//go:generate mockgen -package=service_test -destination=../service/mock_source_test.go -source=source.go

import (
	"context"
	"time"
)

// QuoteSource fetches a single quote from one upstream provider. A source
// that cannot serve a symbol returns an error wrapping ErrNotSupported.
type QuoteSource interface {
	Name() string
	Quote(ctx context.Context, symbol TickerSymbol) (Quote, error)
}

// HistorySource fetches OHLCV bars from one upstream provider.
type HistorySource interface {
	Name() string
	History(ctx context.Context, symbol TickerSymbol, r HistoryRange) ([]Candle, error)
}

// NewsSource fetches recent headlines. An empty query asks for general
// market news.
type NewsSource interface {
	Name() string
	News(ctx context.Context, query string, limit int) ([]NewsItem, error)
}

// TokenProvider returns the current broker access token or an error wrapping
// ErrAuthRequired.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Clock is injected where expiry decisions are made.
type Clock func() time.Time
