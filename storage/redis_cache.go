package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agriconnect/models"
)

// RedisInsightCache keeps rendered insight reports in Redis as JSON.
type RedisInsightCache struct {
	rdb *redis.Client
}

func NewRedisInsightCache(ctx context.Context, addr, password string, db int) (*RedisInsightCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &RedisInsightCache{rdb: rdb}, nil
}

func (c *RedisInsightCache) Get(ctx context.Context, key string) (*models.InsightReport, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("redis: get %s: %w", key, err)
	}

	var report models.InsightReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, false, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return &report, true, nil
}

func (c *RedisInsightCache) Set(ctx context.Context, key string, report *models.InsightReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (c *RedisInsightCache) Invalidate(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}

func (c *RedisInsightCache) Close() error {
	return c.rdb.Close()
}
