package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// SessionStore implements domain.SessionStore under a single key. Expiry is
// decided by the broker service at read time, not by a Redis TTL.
type SessionStore struct {
	rdb *redis.Client
	key string
}

// NewSessionStore creates a SessionStore backed by the given Client.
func NewSessionStore(c *Client) *SessionStore {
	return &SessionStore{rdb: c.rdb, key: c.key("broker", "session")}
}

// Get implements domain.SessionStore.
func (s *SessionStore) Get(ctx context.Context) (domain.BrokerSession, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BrokerSession{}, domain.ErrNotFound
		}
		return domain.BrokerSession{}, fmt.Errorf("redis: get session: %w", err)
	}
	var sess domain.BrokerSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.BrokerSession{}, fmt.Errorf("redis: unmarshal session: %w", err)
	}
	return sess, nil
}

// Put implements domain.SessionStore.
func (s *SessionStore) Put(ctx context.Context, sess domain.BrokerSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: put session: %w", err)
	}
	return nil
}

// Delete implements domain.SessionStore.
func (s *SessionStore) Delete(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: delete session: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SessionStore = (*SessionStore)(nil)
