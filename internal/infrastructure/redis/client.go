package redisinfra

import (
	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient creates the process-wide Redis client. Constructed once in main
// and injected everywhere a TTL store is needed.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
