package cache

import (
	"context"
	"time"
)

// Cache is the key value store used in front of repositories
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
	Flush(ctx context.Context)
}

const (
	PrefixUser         = "user:v1:"
	PrefixUserByEmail  = "user_email:v1:"
	PrefixSubscription = "subscription:v1:"
)

// GenerateKey joins a prefix and identifying parts into a cache key
func GenerateKey(prefix string, params ...string) string {
	key := prefix
	for i, p := range params {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
