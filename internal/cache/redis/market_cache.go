package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// MarketCache implements domain.MarketDataCache with one hash of JSON quotes
// and one global timestamp, so the freshness rule matches the in-memory
// cache exactly.
//
// Key schema:
//
//	{prefix}market:quotes        - hash, field = symbol, value = JSON quote
//	{prefix}market:last_updated  - unix milliseconds of the last merge
type MarketCache struct {
	rdb    *redis.Client
	quotes string
	stamp  string
	ttl    time.Duration
}

// NewMarketCache creates a MarketCache whose entries are trusted for ttl
// after the last merge.
func NewMarketCache(c *Client, ttl time.Duration) *MarketCache {
	return &MarketCache{
		rdb:    c.rdb,
		quotes: c.key("market", "quotes"),
		stamp:  c.key("market", "last_updated"),
		ttl:    ttl,
	}
}

// Lookup implements domain.MarketDataCache.
func (mc *MarketCache) Lookup(ctx context.Context, symbol domain.TickerSymbol, now time.Time) (domain.Quote, bool, error) {
	last, err := mc.LastUpdated(ctx)
	if err != nil {
		return domain.Quote{}, false, err
	}
	if last.IsZero() || now.Sub(last) >= mc.ttl {
		return domain.Quote{}, false, nil
	}

	data, err := mc.rdb.HGet(ctx, mc.quotes, symbol.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Quote{}, false, nil
		}
		return domain.Quote{}, false, fmt.Errorf("redis: lookup quote %s: %w", symbol, err)
	}

	var q domain.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Quote{}, false, fmt.Errorf("redis: unmarshal quote %s: %w", symbol, err)
	}
	return q, true, nil
}

// Merge implements domain.MarketDataCache. Fields and timestamp are written
// in one MULTI block.
func (mc *MarketCache) Merge(ctx context.Context, quotes []domain.Quote, now time.Time) error {
	if len(quotes) == 0 {
		return nil
	}
	values := make([]any, 0, 2*len(quotes))
	for _, q := range quotes {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("redis: marshal quote %s: %w", q.Symbol, err)
		}
		values = append(values, q.Symbol.String(), data)
	}

	pipe := mc.rdb.TxPipeline()
	pipe.HSet(ctx, mc.quotes, values...)
	pipe.Set(ctx, mc.stamp, now.UnixMilli(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: merge %d quotes: %w", len(quotes), err)
	}
	return nil
}

// LastUpdated implements domain.MarketDataCache.
func (mc *MarketCache) LastUpdated(ctx context.Context) (time.Time, error) {
	ms, err := mc.rdb.Get(ctx, mc.stamp).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("redis: get last_updated: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// Compile-time interface check.
var _ domain.MarketDataCache = (*MarketCache)(nil)
