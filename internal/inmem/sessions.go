package inmem

import (
	"context"
	"sync"
	"time"

	"membertrack/internal/auth"
)

// SessionStore is an in-memory auth.SessionStore. TTLs are ignored; entries
// live for the life of the store.
type SessionStore struct {
	mu        sync.Mutex
	bySubject map[string][]string
	revoked   map[string]bool
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		bySubject: make(map[string][]string),
		revoked:   make(map[string]bool),
	}
}

func (s *SessionStore) Track(ctx context.Context, subject, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySubject[subject] = append(s.bySubject[subject], jti)
	return nil
}

func (s *SessionStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = true
	return nil
}

func (s *SessionStore) RevokeAll(ctx context.Context, subject string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, jti := range s.bySubject[subject] {
		s.revoked[jti] = true
	}
	delete(s.bySubject, subject)
	return nil
}

func (s *SessionStore) IsRevoked(ctx context.Context, jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[jti]
}

var _ auth.SessionStore = (*SessionStore)(nil)
