// Package cache holds the cards read cache: a derived view of "all cards for
// user X" in final wire format. It is never a source of truth; callers must
// treat every error here as a miss and fall through to the database.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/flinderax/backend/internal/config"
)

// ErrCacheMiss is returned when no entry exists for the user.
var ErrCacheMiss = errors.New("cache miss")

// CardCache is the capability handed to the services. Implementations must
// be safe for concurrent use.
type CardCache interface {
	GetCardsForUser(ctx context.Context, userID string) ([]byte, error)
	PutCardsForUser(ctx context.Context, userID string, payload []byte) error
	InvalidateUser(ctx context.Context, userID string) error
}

// NewCardCache returns a Redis-backed cache, or a no-op cache when the
// server runs without Redis. Callers never need a nil check.
func NewCardCache(client *redis.Client, cfg *config.CacheConfig) CardCache {
	if client == nil {
		return noopCardCache{}
	}
	return &redisCardCache{client: client, cfg: cfg}
}

type redisCardCache struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func (c *redisCardCache) key(userID string) string {
	return fmt.Sprintf("%s:%s:%s", c.cfg.KeyPrefix, c.cfg.KeyVersion, userID)
}

func (c *redisCardCache) GetCardsForUser(ctx context.Context, userID string) ([]byte, error) {
	payload, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *redisCardCache) PutCardsForUser(ctx context.Context, userID string, payload []byte) error {
	return c.client.Set(ctx, c.key(userID), payload, c.cfg.TTL).Err()
}

func (c *redisCardCache) InvalidateUser(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

// noopCardCache keeps every read path on the authoritative stores.
type noopCardCache struct{}

func (noopCardCache) GetCardsForUser(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (noopCardCache) PutCardsForUser(context.Context, string, []byte) error { return nil }

func (noopCardCache) InvalidateUser(context.Context, string) error { return nil }
