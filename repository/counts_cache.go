package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"fixmyarea-be/models"
)

const countsCacheKey = "complaints:counts"

// RedisCountsCache keeps the public solved/pending counts for a short TTL.
type RedisCountsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCountsCache(client *redis.Client, ttl time.Duration) *RedisCountsCache {
	return &RedisCountsCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a cache miss.
func (c *RedisCountsCache) Get(ctx context.Context) (*models.StatusCounts, error) {
	raw, err := c.client.Get(ctx, countsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var counts models.StatusCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (c *RedisCountsCache) Set(ctx context.Context, counts models.StatusCounts) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, countsCacheKey, raw, c.ttl).Err()
}

func (c *RedisCountsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, countsCacheKey).Err()
}
