package cache

import (
	"context"
	"time"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	redisclient "github.com/viniciusmaculo/filaTransplantesBackend/common/redis"
)

// RedisCache backs the Cache interface with Redis, letting several service
// instances behind one Redis share head-pointer hints
type RedisCache struct {
	client *redisclient.Client
	log    *logger.Logger
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(client *redisclient.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		log:    log,
	}
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := c.client.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetWithExpiry(ctx, key, string(value), ttl)
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}

// Close closes the underlying Redis connection
func (c *RedisCache) Close() error {
	c.log.Info("redis cache closed")
	return c.client.Close()
}
