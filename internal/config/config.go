package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Server struct {
	TrackingAddr string `yaml:"tracking_addr"`
	StaffAddr    string `yaml:"staff_addr"`
}

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type RabbitMQ struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type Redis struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	SnapshotTTL int    `yaml:"snapshot_ttl_seconds"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Polling struct {
	TrackingSeconds int `yaml:"tracking_seconds"`
	HistorySeconds  int `yaml:"history_seconds"`
}

type App struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	Redis    Redis    `yaml:"redis"`
	Auth     Auth     `yaml:"auth"`
	Polling  Polling  `yaml:"polling"`
}

// Load reads the YAML config and overlays secrets from the environment.
// A .env file is picked up when present; its absence is not an error.
func Load(path string) (App, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return App{}, fmt.Errorf("read config: %w", err)
	}
	var cfg App
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return App{}, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RABBITMQ_PASSWORD"); v != "" {
		cfg.RabbitMQ.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return App{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *App) {
	if cfg.Server.TrackingAddr == "" {
		cfg.Server.TrackingAddr = ":3000"
	}
	if cfg.Server.StaffAddr == "" {
		cfg.Server.StaffAddr = ":3001"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.VHost == "" {
		cfg.RabbitMQ.VHost = "/"
	}
	if cfg.Redis.SnapshotTTL == 0 {
		cfg.Redis.SnapshotTTL = 60
	}
	if cfg.Polling.TrackingSeconds == 0 {
		cfg.Polling.TrackingSeconds = 10
	}
	if cfg.Polling.HistorySeconds == 0 {
		cfg.Polling.HistorySeconds = 15
	}
}

func validate(cfg App) error {
	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
		return fmt.Errorf("database config incomplete")
	}
	if cfg.RabbitMQ.Host == "" || cfg.RabbitMQ.User == "" {
		return fmt.Errorf("rabbitmq config incomplete")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret missing")
	}
	return nil
}

// TrackingInterval is the public tracking view poll interval.
func (c App) TrackingInterval() time.Duration {
	return time.Duration(c.Polling.TrackingSeconds) * time.Second
}

// HistoryInterval is the authenticated order-history poll interval.
func (c App) HistoryInterval() time.Duration {
	return time.Duration(c.Polling.HistorySeconds) * time.Second
}

// TTL bounds staleness of cached order snapshots.
func (c Redis) TTL() time.Duration {
	return time.Duration(c.SnapshotTTL) * time.Second
}
