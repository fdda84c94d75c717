package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks issued session tokens and their revocation state.
type SessionStore interface {
	Track(ctx context.Context, subject, jti string, ttl time.Duration) error
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	RevokeAll(ctx context.Context, subject string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) bool
}

// SessionRegistry tracks issued session tokens in Redis so that logout and
// password changes can revoke them. The signed token stays authoritative:
// when Redis is unreachable, nothing is treated as revoked.
type SessionRegistry struct {
	client *redis.Client
}

// NewSessionRegistry wraps a redis client. A nil client yields a registry
// that tracks and revokes nothing.
func NewSessionRegistry(client *redis.Client) *SessionRegistry {
	return &SessionRegistry{client: client}
}

func sessionsKey(subject string) string { return "sessions:" + subject }
func revokedKey(jti string) string      { return "revoked:" + jti }

// Track records a newly issued session against its subject.
func (r *SessionRegistry) Track(ctx context.Context, subject, jti string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}
	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, sessionsKey(subject), jti)
	pipe.Expire(ctx, sessionsKey(subject), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Revoke marks a single session token as revoked for the given duration.
func (r *SessionRegistry) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

// RevokeAll revokes every tracked session for a subject. Used when a member
// account password changes.
func (r *SessionRegistry) RevokeAll(ctx context.Context, subject string, ttl time.Duration) error {
	if r == nil || r.client == nil {
		return nil
	}
	jtis, err := r.client.SMembers(ctx, sessionsKey(subject)).Result()
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	for _, jti := range jtis {
		pipe.Set(ctx, revokedKey(jti), "1", ttl)
	}
	pipe.Del(ctx, sessionsKey(subject))
	_, err = pipe.Exec(ctx)
	return err
}

// IsRevoked reports whether a session has been revoked. Redis errors count
// as not revoked.
func (r *SessionRegistry) IsRevoked(ctx context.Context, jti string) bool {
	if r == nil || r.client == nil {
		return false
	}
	n, err := r.client.Exists(ctx, revokedKey(jti)).Result()
	return err == nil && n > 0
}

var _ SessionStore = (*SessionRegistry)(nil)
