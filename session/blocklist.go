package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blocklist records signed-out sessions until their credentials expire.
type Blocklist interface {
	IsBlocked(ctx context.Context, sessionID string) (bool, error)
	Block(ctx context.Context, sessionID string, until time.Time) error
}

// RedisBlocklist stores revoked session ids in Redis with a TTL matching
// the credential's remaining lifetime.
type RedisBlocklist struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisBlocklist creates a blocklist backed by client.
func NewRedisBlocklist(client *redis.Client, prefix string) *RedisBlocklist {
	if prefix == "" {
		prefix = "session:revoked:"
	}
	return &RedisBlocklist{client: client, prefix: prefix, now: time.Now}
}

// IsBlocked reports whether sessionID was revoked.
func (b *RedisBlocklist) IsBlocked(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	n, err := b.client.Exists(ctx, b.prefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("blocklist lookup: %w", err)
	}
	return n > 0, nil
}

// Block revokes sessionID until the given time. Sessions that already
// expired are not stored.
func (b *RedisBlocklist) Block(ctx context.Context, sessionID string, until time.Time) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.prefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blocklist store: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness checks.
func (b *RedisBlocklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
