package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Handler delivers one verification email event.
type Handler func(ctx context.Context, ev VerificationEmailEvent) error

// ErrMalformedEvent marks a message body that can never be processed.
var ErrMalformedEvent = errors.New("malformed verification email event")

// Consumer drains the verification mail queue and hands each event to a Handler.
type Consumer struct {
	URL     string
	Queue   string
	Handle  Handler
	Log     *zap.Logger
	Timeout time.Duration // per-message bound on Handle
}

// Run connects to RabbitMQ, declares the queue (durable), and consumes until
// ctx is cancelled. Dial failures are retried with exponential backoff capped
// at 30s, reset after every successful connect; Run only returns once ctx is
// done.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Log == nil {
		c.Log = zap.NewNop()
	}
	if c.Queue == "" {
		c.Queue = VerificationQueueName
	}
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			return err
		}
		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("mail-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

// dial blocks until the broker accepts a connection or ctx is done.
func (c *Consumer) dial(ctx context.Context) (*amqp.Connection, error) {
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
	var conn *amqp.Connection
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		conn, err = amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("mail-consumer: dial failed", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.Log.Warn("mail-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	err := c.handleMessage(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformedEvent):
		c.Log.Error("mail-consumer: dropping malformed message", zap.Error(err))
		_ = d.Nack(false, false) // never processable, do not requeue
	default:
		// The account was already auto-verified or is waiting on a resend;
		// requeueing would only reorder codes, so the message is dropped.
		c.Log.Error("mail-consumer: delivery failed", zap.Error(err))
		_ = d.Nack(false, false)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var ev VerificationEmailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.To == "" || ev.Code == "" {
		return fmt.Errorf("%w: missing recipient or code", ErrMalformedEvent)
	}
	if !ev.ExpiresAt.IsZero() && ev.ExpiresAt.Before(time.Now()) {
		c.Log.Info("mail-consumer: skipping expired code", zap.String("to", ev.To))
		return nil
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := c.Handle(ctx, ev); err != nil {
		return fmt.Errorf("deliver to %s: %w", ev.To, err)
	}
	c.Log.Info("mail-consumer: verification email sent", zap.String("to", ev.To))
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
