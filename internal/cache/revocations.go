package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// Revocations keeps revoked token IDs in Redis. Keys expire together with
// the token they refer to, so the set never outgrows the live tokens.
type Revocations struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocations returns a Redis-backed revocation store.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

// Revoke marks jti as revoked until expiresAt.
func (r *Revocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("cache: revoking token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("cache: checking token revocation: %w", err)
	}
	return n > 0, nil
}
