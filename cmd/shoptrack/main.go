package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shoptrack/internal/config"
	"shoptrack/internal/consumer"
	"shoptrack/internal/httpapi"
	"shoptrack/internal/logger"
)

func main() {
	mode := flag.String("mode", "", "tracking-api | staff-api | timeline-consumer")
	cfgPath := flag.String("config", "config.yaml", "path to YAML config")
	workerName := flag.String("worker-name", "", "timeline-consumer: unique worker name")
	prefetch := flag.Int("prefetch", 1, "timeline-consumer: RabbitMQ prefetch")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}

	switch *mode {
	case "tracking-api":
		lg.Info("service_starting", map[string]any{"service": "tracking-api", "addr": cfg.Server.TrackingAddr})
		if err := httpapi.RunTracking(ctx, cfg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "staff-api":
		lg.Info("service_starting", map[string]any{"service": "staff-api", "addr": cfg.Server.StaffAddr})
		if err := httpapi.RunStaff(ctx, cfg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "timeline-consumer":
		if *workerName == "" {
			fmt.Fprintln(os.Stderr, "--worker-name is required for timeline-consumer")
			os.Exit(2)
		}
		lg.Info("service_starting", map[string]any{"service": "timeline-consumer", "worker": *workerName})
		if err := consumer.Run(ctx, cfg, *workerName, *prefetch); err != nil && ctx.Err() == nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: tracking-api | staff-api | timeline-consumer")
		os.Exit(2)
	}
}
