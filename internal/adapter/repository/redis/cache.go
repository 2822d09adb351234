package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheNamespace = "hongbao:hint:"

// Cache implements usecase.Cache. Entries are hints with a mandatory TTL.
type Cache struct {
	client redis.UniversalClient
}

// NewCache creates a new Cache.
func NewCache(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Get returns "" and a nil error on a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, cacheNamespace+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache %s: ttl must be positive", key)
	}
	return c.client.Set(ctx, cacheNamespace+key, value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, cacheNamespace+key).Err()
}
