package cache

import (
	"context"
	"fmt"
	"tichmi/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a new Redis client and pings the server to ensure
// connectivity. The generation cache is optional; callers treat a connection
// failure as "run without a cache", not as a startup error.
func NewRedisClient(redisCfg config.RedisConfig) (*redis.Client, error) {
	if redisCfg.Address == "" {
		return nil, fmt.Errorf("redis configuration is missing or address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisCfg.Address, err)
	}

	return client, nil
}
