package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// User is the generic identity row backing the protected-procedure check.
// One is upserted whenever an admin or member account signs in, keyed by
// that credential's id.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	LastSignedIn time.Time `json:"lastSignedIn"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStore persists users in Postgres.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Upsert creates or refreshes the user row for a credential id.
func (s *UserStore) Upsert(ctx context.Context, id, name, role string) error {
	if id == "" {
		return errors.New("user id required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role, last_signed_in)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			last_signed_in = NOW(),
			updated_at = NOW()
	`, id, name, role)
	return err
}

// Get returns the user row for a credential id, or nil when absent.
func (s *UserStore) Get(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(name, ''), role, last_signed_in, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Role, &u.LastSignedIn, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
