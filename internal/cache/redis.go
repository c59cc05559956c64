package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkotelnikov/calbooking/config"
	"github.com/nkotelnikov/calbooking/internal/domain"
)

type RedisCache struct {
	client     *redis.Client
	slotsTTL   time.Duration
	summaryTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, slotsTTL, summaryTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		slotsTTL:   slotsTTL,
		summaryTTL: summaryTTL,
	}
}

// NewRedisCacheWithClient wires an existing client, used by tests with
// miniredis.
func NewRedisCacheWithClient(client *redis.Client, slotsTTL, summaryTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, slotsTTL: slotsTTL, summaryTTL: summaryTTL}
}

func (c *RedisCache) GetAvailability(ctx context.Context, key string) (*domain.DayAvailability, error) {
	data, err := c.client.Get(ctx, availabilityKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var day domain.DayAvailability
	if err := json.Unmarshal(data, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, key string, day *domain.DayAvailability) error {
	payload, err := json.Marshal(day)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(key), payload, c.slotsTTL).Err()
}

func (c *RedisCache) GetSummary(ctx context.Context, sourceHash string) (*domain.Summary, error) {
	data, err := c.client.Get(ctx, summaryKey(sourceHash)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var summary domain.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *RedisCache) SetSummary(ctx context.Context, sourceHash string, summary *domain.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(sourceHash), payload, c.summaryTTL).Err()
}

func availabilityKey(key string) string {
	return fmt.Sprintf("cache:availability:%s", key)
}

func summaryKey(sourceHash string) string {
	return fmt.Sprintf("cache:summary:%s", sourceHash)
}
