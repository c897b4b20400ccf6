package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/subtrack/subtrack/internal/logger"
	redisClient "github.com/subtrack/subtrack/internal/redis"
)

const (
	backendRedis = "redis"

	deleteRetryDelay = 100 * time.Millisecond
	scanCount        = 100
	deleteBatchSize  = 500
)

// RedisCache stores values as JSON so any process sharing the instance can decode them
type RedisCache struct {
	client *redis.Client
	log    *logger.Logger
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client *redisClient.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client.GetClient(),
		log:    log,
	}
}

// Get reports a miss on any redis error; the caller falls through to the store
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	span := startSpan(ctx, backendRedis, "get", key)

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		finishSpan(span, false, nil)
		return nil, false
	}
	if err != nil {
		finishSpan(span, false, err)
		c.log.Errorw("redis get failed", "key", key, "error", err)
		return nil, false
	}

	finishSpan(span, true, nil)
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration == 0 {
		expiration = ExpiryForKey(key)
	}

	var payload string
	switch v := value.(type) {
	case string:
		payload = v
	default:
		data, err := json.Marshal(value)
		if err != nil {
			c.log.Errorw("failed to encode cache value", "key", key, "error", err)
			return
		}
		payload = string(data)
	}

	span := startSpan(ctx, backendRedis, "set", key)
	err := c.client.Set(ctx, key, payload, expiration).Err()
	finishSpan(span, false, err)
	if err != nil {
		c.log.Errorw("redis set failed", "key", key, "error", err)
	}
}

// Delete retries once, since a stale entry outlives the write that invalidated it
func (c *RedisCache) Delete(ctx context.Context, key string) {
	span := startSpan(ctx, backendRedis, "delete", key)
	err := c.client.Del(ctx, key).Err()
	finishSpan(span, false, err)
	if err == nil {
		return
	}

	c.log.Warnw("redis delete failed, retrying", "key", key, "error", err)
	time.Sleep(deleteRetryDelay)

	retryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.client.Del(retryCtx, key).Err(); err != nil {
		c.log.Errorw("redis delete retry failed", "key", key, "error", err)
	}
}

func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", scanCount).Iterator()

	batch := make([]string, 0, deleteBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			c.log.Errorw("redis batch delete failed", "prefix", prefix, "keys", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= deleteBatchSize {
			flush()
		}
	}
	flush()

	if err := iter.Err(); err != nil {
		c.log.Errorw("redis scan failed", "prefix", prefix, "error", err)
	}
}

// Flush removes every key owned by this service, leaving the rest of the database alone
func (c *RedisCache) Flush(ctx context.Context) {
	for _, prefix := range []string{PrefixUser, PrefixUserByEmail, PrefixSubscription} {
		c.DeleteByPrefix(ctx, prefix)
	}
}
