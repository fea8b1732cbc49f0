// Package memory implements the domain cache, session and bus interfaces in
// process memory. It is the default backend for a single server.
package memory

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	"github.com/Sarish05/AIvestor/internal/domain"
)

type snapshot struct {
	quotes      map[domain.TickerSymbol]domain.Quote
	lastUpdated time.Time
}

// MarketCache is a copy-on-write domain.MarketDataCache. Readers never
// block; concurrent merges retry until their snapshot wins, so no merge
// drops another's symbols.
type MarketCache struct {
	snap atomic.Pointer[snapshot]
	ttl  time.Duration
}

// NewMarketCache creates an empty cache trusted for ttl after each merge.
func NewMarketCache(ttl time.Duration) *MarketCache {
	mc := &MarketCache{ttl: ttl}
	mc.snap.Store(&snapshot{quotes: map[domain.TickerSymbol]domain.Quote{}})
	return mc
}

// Lookup implements domain.MarketDataCache.
func (mc *MarketCache) Lookup(_ context.Context, symbol domain.TickerSymbol, now time.Time) (domain.Quote, bool, error) {
	s := mc.snap.Load()
	if s.lastUpdated.IsZero() || now.Sub(s.lastUpdated) >= mc.ttl {
		return domain.Quote{}, false, nil
	}
	q, ok := s.quotes[symbol]
	return q, ok, nil
}

// Merge implements domain.MarketDataCache.
func (mc *MarketCache) Merge(_ context.Context, quotes []domain.Quote, now time.Time) error {
	if len(quotes) == 0 {
		return nil
	}
	for {
		old := mc.snap.Load()
		next := &snapshot{
			quotes:      make(map[domain.TickerSymbol]domain.Quote, len(old.quotes)+len(quotes)),
			lastUpdated: now,
		}
		maps.Copy(next.quotes, old.quotes)
		for _, q := range quotes {
			next.quotes[q.Symbol] = q
		}
		if old.lastUpdated.After(now) {
			next.lastUpdated = old.lastUpdated
		}
		if mc.snap.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// LastUpdated implements domain.MarketDataCache.
func (mc *MarketCache) LastUpdated(context.Context) (time.Time, error) {
	return mc.snap.Load().lastUpdated, nil
}

// Len reports how many symbols are held, fresh or not.
func (mc *MarketCache) Len() int {
	return len(mc.snap.Load().quotes)
}

var _ domain.MarketDataCache = (*MarketCache)(nil)
