package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"shoptrack/internal/cache"
	"shoptrack/internal/config"
	"shoptrack/internal/connections/database"
	"shoptrack/internal/connections/rabbitmq"
	"shoptrack/internal/connections/redisconn"
	"shoptrack/internal/httpx"
	"shoptrack/internal/logger"
	"shoptrack/internal/orders"
)

// RunTracking starts the buyer-facing API.
func RunTracking(ctx context.Context, cfg config.App) error {
	return run(ctx, cfg, "tracking-api", cfg.Server.TrackingAddr, TrackingRouter)
}

// RunStaff starts the staff mutation API.
func RunStaff(ctx context.Context, cfg config.App) error {
	return run(ctx, cfg, "staff-api", cfg.Server.StaffAddr, StaffRouter)
}

func run(ctx context.Context, cfg config.App, service, addr string,
	router func(*Handler, *Middleware) http.Handler) error {
	lg := logger.New(service)

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

	repo := orders.NewRepository(pool)
	snapshots := cache.NewOrders(rdb, cfg.Redis.TTL(), lg)
	svc := orders.NewService(repo, snapshots, rmq, lg)
	h := NewHandler(svc, cfg, lg)
	m := NewMiddleware(cfg.Auth.JWTSecret, lg)

	lg.Info("service_started", map[string]any{"addr": addr})
	return httpx.New(addr, router(h, m)).Run(ctx)
}
