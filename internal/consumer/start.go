package consumer

import (
	"context"
	"fmt"

	"shoptrack/internal/cache"
	"shoptrack/internal/config"
	"shoptrack/internal/connections/database"
	"shoptrack/internal/connections/rabbitmq"
	"shoptrack/internal/connections/redisconn"
	"shoptrack/internal/logger"
	"shoptrack/internal/orders"
)

// Run wires the timeline consumer: postgres for the view rows, redis for
// invalidation, rabbitmq for deliveries.
func Run(ctx context.Context, cfg config.App, workerName string, prefetch int) error {
	lg := logger.New("timeline-consumer")

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	rdb, err := redisconn.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	rmq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rmq.Close()
	if err := rmq.DeclareTopology(); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	deliveries, err := rmq.Consume(rabbitmq.QueueTracking, workerName, prefetch)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	repo := orders.NewRepository(pool)
	snapshots := cache.NewOrders(rdb, cfg.Redis.TTL(), lg)

	lg.Info("service_started", map[string]any{"worker": workerName, "prefetch": prefetch})
	return New(repo, snapshots, lg).Run(ctx, deliveries)
}
