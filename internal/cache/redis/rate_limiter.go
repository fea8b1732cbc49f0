package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// RateLimiter implements domain.RateLimiter with one sorted set per key,
// scored by request time. Requests over the limit are removed again so
// they do not count against the caller.
type RateLimiter struct {
	c   *Client
	now func() time.Time
}

// NewRateLimiter creates a RateLimiter backed by c.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{c: c, now: time.Now}
}

// Allow implements domain.RateLimiter.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	k := rl.c.key("ratelimit", key)
	now := rl.now()
	member := strconv.FormatInt(now.UnixMicro(), 10) + "-" + uuid.NewString()
	floor := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	pipe := rl.c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", "("+floor)
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: member})
	card := pipe.ZCard(ctx, k)
	pipe.PExpire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", key, err)
	}

	if card.Val() > int64(limit) {
		if err := rl.c.rdb.ZRem(ctx, k, member).Err(); err != nil {
			return false, fmt.Errorf("redis: rate limit %s: %w", key, err)
		}
		return false, nil
	}
	return true, nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
