package cache

import (
	"strings"
	"time"
)

const (
	ExpiryDefault      = 5 * time.Minute
	ExpiryUser         = 15 * time.Minute
	ExpirySubscription = time.Minute
)

// prefixExpiry is the TTL applied when a caller passes no expiration
var prefixExpiry = map[string]time.Duration{
	PrefixUser:         ExpiryUser,
	PrefixUserByEmail:  ExpiryUser,
	PrefixSubscription: ExpirySubscription,
}

// ExpiryForKey returns the default TTL of key, chosen by its prefix
func ExpiryForKey(key string) time.Duration {
	for prefix, ttl := range prefixExpiry {
		if strings.HasPrefix(key, prefix) {
			return ttl
		}
	}
	return ExpiryDefault
}
