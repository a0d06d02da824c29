package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"qrdine_backend/pkg/utils"
)

type redisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Cache backed by redis, for deployments where
// multiple API instances should share cached reads.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			utils.LogWarn("redis cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	return value, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		utils.LogWarn("redis cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		utils.LogWarn("redis cache delete failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
