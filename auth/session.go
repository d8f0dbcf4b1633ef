package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ai-doc-authoring/redis"
)

// Sessions is the allowlist of live token ids. Logging out removes the entry
// so the token stops working before it expires.
type Sessions struct {
	cache *redis.Cache
}

func NewSessions(cache *redis.Cache) *Sessions {
	return &Sessions{cache: cache}
}

func sessionKey(jti string) string {
	return fmt.Sprintf("auth:session:%s", jti)
}

// Enabled is false when Redis is unavailable; tokens are then checked by signature only.
func (s *Sessions) Enabled() bool {
	return s != nil && s.cache.Enabled()
}

func (s *Sessions) Save(ctx context.Context, claims *Claims) error {
	if !s.Enabled() {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, sessionKey(claims.ID), strconv.FormatUint(claims.UserID, 10), ttl)
}

func (s *Sessions) Active(ctx context.Context, jti string) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	return s.cache.Exists(ctx, sessionKey(jti))
}

func (s *Sessions) Revoke(ctx context.Context, jti string) error {
	if !s.Enabled() {
		return nil
	}
	return s.cache.Delete(ctx, sessionKey(jti))
}
