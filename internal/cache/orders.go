package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"shoptrack/internal/domain"
	"shoptrack/internal/logger"
)

const keyPrefix = "order:snapshot:"

// Orders is a redis-backed snapshot cache. Reads and writes degrade
// silently: a dead redis means repo reads, never failed requests.
type Orders struct {
	rdb *redis.Client
	ttl time.Duration
	lg  *logger.Logger
}

func NewOrders(rdb *redis.Client, ttl time.Duration, lg *logger.Logger) *Orders {
	return &Orders{rdb: rdb, ttl: ttl, lg: lg}
}

func (c *Orders) Get(ctx context.Context, orderID string) (domain.Order, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+orderID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.lg.Error("cache_get_failed", err, map[string]any{"order_id": orderID})
		}
		return domain.Order{}, false
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		// Corrupt entry: drop it and fall through to the repo.
		_ = c.rdb.Del(ctx, keyPrefix+orderID).Err()
		return domain.Order{}, false
	}
	return order, true
}

func (c *Orders) Set(ctx context.Context, order domain.Order) {
	if !order.Found() {
		return
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+order.ID, raw, c.ttl).Err(); err != nil {
		c.lg.Error("cache_set_failed", err, map[string]any{"order_id": order.ID})
	}
}

func (c *Orders) Invalidate(ctx context.Context, orderID string) error {
	return c.rdb.Del(ctx, keyPrefix+orderID).Err()
}
