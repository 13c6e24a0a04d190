package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"guias/internal/errs"
	"guias/internal/ports"
)

// RedisCache shares authorization codes between server instances. Expiry is left to redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	value, err := c.client.Get(ctx, c.prefix+k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "redis get")
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	k, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	return errs.Wrap(c.client.Set(ctx, c.prefix+k, value, ttl).Err(), "redis set")
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	k, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	return errs.Wrap(c.client.Del(ctx, c.prefix+k).Err(), "redis del")
}
