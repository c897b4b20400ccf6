package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache implements Cache with patrickmn/go-cache
type InMemoryCache struct {
	cache *gocache.Cache
}

var (
	inMemoryCache     *InMemoryCache
	inMemoryCacheOnce sync.Once
)

const cleanupInterval = 10 * time.Minute

// NewInMemoryCache creates a standalone in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		cache: gocache.New(ExpiryDefault, cleanupInterval),
	}
}

// InitializeInMemoryCache initializes the global in-memory cache instance
func InitializeInMemoryCache() {
	inMemoryCacheOnce.Do(func() {
		inMemoryCache = NewInMemoryCache()
	})
}

// GetInMemoryCache returns the global in-memory cache instance
func GetInMemoryCache() *InMemoryCache {
	InitializeInMemoryCache()
	return inMemoryCache
}

func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration == 0 {
		expiration = ExpiryForKey(key)
	}
	c.cache.Set(key, value, expiration)
}

func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

func (c *InMemoryCache) DeleteByPrefix(_ context.Context, prefix string) {
	for key := range c.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Delete(key)
		}
	}
}

func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}
