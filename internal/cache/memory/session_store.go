package memory

import (
	"context"
	"sync"

	"github.com/Sarish05/AIvestor/internal/domain"
)

// SessionStore keeps the broker session in memory.
type SessionStore struct {
	mu   sync.RWMutex
	sess *domain.BrokerSession
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Get implements domain.SessionStore.
func (s *SessionStore) Get(context.Context) (domain.BrokerSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return domain.BrokerSession{}, domain.ErrNotFound
	}
	return *s.sess, nil
}

// Put implements domain.SessionStore.
func (s *SessionStore) Put(_ context.Context, sess domain.BrokerSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess
	return nil
}

// Delete implements domain.SessionStore.
func (s *SessionStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}

var _ domain.SessionStore = (*SessionStore)(nil)
