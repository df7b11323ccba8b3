package redisconn

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"shoptrack/internal/config"
)

// Connect opens a redis client and verifies it with a ping.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
