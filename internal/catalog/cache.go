package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gamerlink/internal/domain"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "gamerlink:catalog:search:"

// RedisCache keeps catalog search results for a short TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opt), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get reports ok=false on a miss.
func (c *RedisCache) Get(ctx context.Context, query string) ([]domain.CatalogGame, bool, error) {
	raw, err := c.client.Get(ctx, SearchCacheKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("catalog cache get: %w", err)
	}
	var out []domain.CatalogGame
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("catalog cache decode: %w", err)
	}
	return out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, query string, games []domain.CatalogGame) error {
	raw, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("catalog cache encode: %w", err)
	}
	if err := c.client.Set(ctx, SearchCacheKey(query), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog cache set: %w", err)
	}
	return nil
}

func SearchCacheKey(query string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
