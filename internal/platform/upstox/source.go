package upstox

import (
	"context"
	"fmt"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// Source adapts the client to domain.QuoteSource and domain.HistorySource.
// Every call needs a live broker session from tokens.
type Source struct {
	client *Client
	tokens domain.TokenProvider
	now    domain.Clock
}

// NewSource creates a broker-backed quote source.
func NewSource(client *Client, tokens domain.TokenProvider) *Source {
	return &Source{client: client, tokens: tokens, now: time.Now}
}

// Name implements domain.QuoteSource.
func (s *Source) Name() string { return sourceName }

// Quote implements domain.QuoteSource.
func (s *Source) Quote(ctx context.Context, symbol domain.TickerSymbol) (domain.Quote, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("upstox: quote %s: %w", symbol, err)
	}
	quotes, err := s.client.Quotes(ctx, token, []domain.TickerSymbol{symbol})
	if err != nil {
		return domain.Quote{}, err
	}
	if len(quotes) == 0 {
		return domain.Quote{}, fmt.Errorf("upstox: quote %s: not returned: %w", symbol, domain.ErrUpstreamUnavailable)
	}
	return quotes[0], nil
}

// History implements domain.HistorySource.
func (s *Source) History(ctx context.Context, symbol domain.TickerSymbol, r domain.HistoryRange) ([]domain.Candle, error) {
	unit, err := CandleUnit(r.Interval)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("upstox: history %s: %w", symbol, err)
	}
	now := s.now()
	return s.client.Candles(ctx, token, symbol, unit, r.Start(now), now)
}

// CandleUnit maps a history interval onto the broker's candle units.
func CandleUnit(interval string) (string, error) {
	switch interval {
	case "1m":
		return "1minute", nil
	case "30m":
		return "30minute", nil
	case "1d", "5d", "day":
		return "day", nil
	case "1wk", "week":
		return "week", nil
	case "1mo", "3mo", "month":
		return "month", nil
	default:
		return "", fmt.Errorf("upstox: interval %q: %w", interval, domain.ErrNotSupported)
	}
}
