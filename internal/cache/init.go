package cache

import (
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/logger"
	redisClient "github.com/subtrack/subtrack/internal/redis"
	"github.com/subtrack/subtrack/internal/types"
)

// Initialize picks the cache backend from configuration. A redis cache without a usable
// client falls back to memory.
func Initialize(cfg *config.Configuration, log *logger.Logger, client *redisClient.Client) Cache {
	log.Infow("Initializing cache system", "type", cfg.Cache.Type, "enabled", cfg.Cache.Enabled)

	if !cfg.Cache.Enabled {
		return NewNoopCache()
	}

	switch cfg.Cache.Type {
	case types.CacheTypeRedis:
		if client == nil {
			log.Warn("Redis cache requested but no redis client is available, using in-memory cache")
			return GetInMemoryCache()
		}
		return NewRedisCache(client, log)
	case types.CacheTypeInMemory:
		fallthrough
	default:
		return GetInMemoryCache()
	}
}
