package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client publishes and consumes cache invalidations over a fanout exchange.
// Each instance binds its own exclusive queue so every peer sees every message.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	origin   string
	log      *slog.Logger
}

func NewClient(url, exchange string, log *slog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		origin:   uuid.NewString(),
		log:      log,
	}
	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) setup() error {
	if err := c.channel.ExchangeDeclare(
		c.exchange,
		amqp091.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := c.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	c.queue = q.Name

	if err := c.channel.QueueBind(c.queue, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Origin identifies this instance on published messages.
func (c *Client) Origin() string {
	return c.origin
}

func (c *Client) PublishInvalidation(ctx context.Context, userID uuid.UUID, keys []string) error {
	body, err := NewInvalidationMessage(userID, keys, c.origin).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchange, "", false, false, amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.log.DebugContext(ctx, "published cache invalidation", "user_id", userID, "keys", len(keys))
	return nil
}

// ConsumeInvalidations delivers peer messages to handle until ctx is done.
// Messages this instance published itself are acknowledged and skipped.
func (c *Client) ConsumeInvalidations(ctx context.Context, handle func(context.Context, *InvalidationMessage) error) error {
	msgs, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.InfoContext(ctx, "consuming cache invalidations", "queue", c.queue, "exchange", c.exchange)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.process(ctx, delivery, handle)
		}
	}
}

func (c *Client) process(ctx context.Context, d amqp091.Delivery, handle func(context.Context, *InvalidationMessage) error) {
	msg, err := InvalidationMessageFromJSON(d.Body)
	if err != nil {
		c.log.ErrorContext(ctx, "dropping malformed invalidation", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if msg.Origin != c.origin {
		if err := handle(ctx, msg); err != nil {
			c.log.ErrorContext(ctx, "invalidation handler failed", "error", err, "user_id", msg.UserID)
			_ = d.Nack(false, true)
			return
		}
	}
	_ = d.Ack(false)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) IsHealthy() bool {
	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed()
}
