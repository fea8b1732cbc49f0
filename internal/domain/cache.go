package domain

import (
	"context"
	"time"
)

// MarketDataCache holds the last known quote per symbol together with a
// single global refresh timestamp. Entries are only trusted while the
// global timestamp is younger than the cache window; staleness is judged at
// read time and nothing is ever evicted.
type MarketDataCache interface {
	// Lookup returns the cached quote for symbol when the cache is fresh at
	// now. The boolean is false on a miss or when the cache is stale.
	Lookup(ctx context.Context, symbol TickerSymbol, now time.Time) (Quote, bool, error)
	// Merge writes quotes into the cache without removing other symbols and
	// moves the global timestamp to now.
	Merge(ctx context.Context, quotes []Quote, now time.Time) error
	// LastUpdated reports the global refresh timestamp (zero if never set).
	LastUpdated(ctx context.Context) (time.Time, error)
}

// SessionStore keeps the single process-wide broker session.
type SessionStore interface {
	Get(ctx context.Context) (BrokerSession, error) // ErrNotFound when empty
	Put(ctx context.Context, s BrokerSession) error
	Delete(ctx context.Context) error
}

// SignalBus provides fan-out pub/sub used by the live quote feed.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter counts requests per key in a sliding window.
type RateLimiter interface {
	// Allow records one request for key and reports whether it fits within
	// limit requests per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
