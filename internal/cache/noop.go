package cache

import (
	"context"
	"time"
)

// NoopCache is used when caching is disabled
type NoopCache struct{}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (NoopCache) Get(context.Context, string) (interface{}, bool) { return nil, false }

func (NoopCache) Set(context.Context, string, interface{}, time.Duration) {}

func (NoopCache) Delete(context.Context, string) {}

func (NoopCache) DeleteByPrefix(context.Context, string) {}

func (NoopCache) Flush(context.Context) {}
