package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient connects to addr and returns nil when Redis is not reachable,
// in which case the service runs without caching or session revocation.
func NewClient(ctx context.Context, addr string, logger zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("redis not available, running without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", addr).Msg("redis connected")
	return client
}

// Cache stores JSON values. A Cache with a nil client misses on every read.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value at key into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// GetVersion returns the counter stored at key, 0 when absent.
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// IncrementVersion bumps the counter at key so every cache key built from it goes stale.
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	c.client.Incr(ctx, key)
}
