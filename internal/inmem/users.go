package inmem

import (
	"context"
	"sync"
	"time"

	"membertrack/internal/auth"
)

// UserStore is an in-memory auth user store.
type UserStore struct {
	mu    sync.Mutex
	users map[string]auth.User
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]auth.User)}
}

func (s *UserStore) Upsert(ctx context.Context, id, name, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	u, ok := s.users[id]
	if !ok {
		u = auth.User{ID: id, CreatedAt: now}
	}
	u.Name = name
	u.Role = role
	u.LastSignedIn = now
	u.UpdatedAt = now
	s.users[id] = u
	return nil
}

func (s *UserStore) Get(ctx context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := u
		return &cp, nil
	}
	return nil, nil
}

var _ auth.UserLoader = (*UserStore)(nil)
