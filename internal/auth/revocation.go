package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers revoked token ids until the token would expire anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocationStore keeps revoked jtis as expiring Redis keys.
type RedisRevocationStore struct {
	redis  *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRevocationStore creates a store over client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{redis: client, prefix: "auth:revoked:", now: time.Now}
}

func (s *RedisRevocationStore) key(jti string) string {
	return s.prefix + jti
}

// Revoke marks jti revoked. Tokens already past until need no entry.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.redis.Get(ctx, s.key(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	}
	return false, fmt.Errorf("auth: revocation lookup %s: %w", jti, err)
}

var _ RevocationStore = (*RedisRevocationStore)(nil)
