package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"shoptrack/internal/config"
	"shoptrack/internal/domain"
)

const (
	ExchangeOrders = "orders_topic"
	ExchangeDLX    = "dlx"
	QueueTracking  = "tracking.q"
	QueueDLQ       = "dlq"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(cfg config.RabbitMQ) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// DeclareTopology declares the orders topic exchange, the tracking queue
// with its dead-letter wiring, and the DLQ itself.
func (c *Client) DeclareTopology() error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("nil channel")
	}
	if err := c.ch.ExchangeDeclare(ExchangeOrders, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(ExchangeDLX, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(QueueTracking, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": QueueDLQ,
	}); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(QueueDLQ, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(QueueTracking, "tracking.*.*", ExchangeOrders, false, nil); err != nil {
		return err
	}
	return c.ch.QueueBind(QueueDLQ, QueueDLQ, ExchangeDLX, false, nil)
}

// PublishChange implements orders.EventPublisher. Routing key is
// tracking.<kind>.<value>, correlation id is the order id so an event can
// be traced back from the broker UI.
func (c *Client) PublishChange(ctx context.Context, ev domain.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	key := fmt.Sprintf("tracking.%s.%s", ev.Kind, ev.Value)
	return c.ch.PublishWithContext(ctx, ExchangeOrders, key, false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     ev.EventID,
		CorrelationId: ev.OrderID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
}

// Consume starts delivery of tracking events with manual acks.
func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
