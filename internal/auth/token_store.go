package auth

import (
	"context"
	"time"

	"bookreview/internal/cache"
)

const revokedTokenKeyPrefix = "revoked_token:"

// TokenStore tracks access tokens revoked before their natural expiry.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenStore struct {
	cache *cache.Client
}

// NewTokenStore creates a token store on top of the fail-safe cache. With a nil cache
// revocation is a no-op and every token reads as live.
func NewTokenStore(c *cache.Client) TokenStore {
	return &redisTokenStore{cache: c}
}

// Revoke marks the token revoked until it would have expired anyway.
func (s *redisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

func (s *redisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+tokenID)
}
