package config

import (
	"os"
	"time"
)

// CacheConfig controls the cards read cache. The key layout is
// "<prefix>:<version>:<user_id>"; bump the version to orphan every existing
// entry after a payload format change.
type CacheConfig struct {
	TTL        time.Duration
	KeyPrefix  string
	KeyVersion string
}

func LoadCacheConfig() *CacheConfig {
	return &CacheConfig{
		TTL:        getEnvAsDuration("CARD_CACHE_TTL", time.Hour),
		KeyPrefix:  getEnv("CARD_CACHE_KEY_PREFIX", "user_cards"),
		KeyVersion: getEnv("CARD_CACHE_KEY_VERSION", "v1"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
