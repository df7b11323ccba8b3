package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"shoptrack/internal/domain"
	"shoptrack/internal/logger"
)

// ViewStore is the slice of the order repository the consumer needs.
type ViewStore interface {
	UpsertTrackingView(ctx context.Context, ev domain.ChangeEvent) error
}

// Invalidator drops cached order snapshots.
type Invalidator interface {
	Invalidate(ctx context.Context, orderID string) error
}

// Consumer applies staff-change events published by the API nodes: it
// keeps the denormalized tracking view current and drops the cached
// snapshot so the next poll re-reads. Malformed payloads go to the DLQ.
type Consumer struct {
	store ViewStore
	cache Invalidator
	lg    *logger.Logger
}

func New(store ViewStore, cache Invalidator, lg *logger.Logger) *Consumer {
	return &Consumer{store: store, cache: cache, lg: lg}
}

// Run processes deliveries until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil || ev.OrderID == "" {
		c.lg.Error("malformed_event", err, map[string]any{"routing_key": d.RoutingKey})
		_ = d.Nack(false, false) // dead-letter, do not requeue
		return
	}
	if err := c.store.UpsertTrackingView(ctx, ev); err != nil {
		c.lg.Error("view_upsert_failed", err, map[string]any{"order_id": ev.OrderID})
		_ = d.Nack(false, true) // transient, retry
		return
	}
	if err := c.cache.Invalidate(ctx, ev.OrderID); err != nil {
		c.lg.Error("cache_invalidate_failed", err, map[string]any{"order_id": ev.OrderID})
	}
	c.lg.Debug("event_applied", map[string]any{
		"order_id": ev.OrderID,
		"kind":     ev.Kind,
		"value":    ev.Value,
	})
	_ = d.Ack(false)
}
