package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCachePrefix = "periodclose:cache:"

// Cache stores serialized reference data such as the chart of accounts.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache namespaces keys under prefix, or the service default when empty.
func NewCache(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = defaultCachePrefix
	}

	return &Cache{client: client, prefix: prefix}
}

// Get returns the stored value, or nil without error on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	return val, err
}

// Set stores a value with TTL. A zero TTL keeps the key until it is deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Delete invalidates key, e.g. after the chart of accounts changes.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
