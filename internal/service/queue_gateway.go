package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/learn-connect/internal/config"
	"github.com/iliyamo/learn-connect/internal/queue"
)

// QueueGateway hands verification email to RabbitMQ; cmd/mailer performs
// the actual SMTP delivery. A broker that cannot be reached, or refuses the
// publish, counts as a failed delivery.
type QueueGateway struct {
	url     string
	queue   string
	now     func() time.Time
	publish func(ctx context.Context, body []byte) error
}

func NewQueueGateway(cfg config.MailConfig) *QueueGateway {
	g := &QueueGateway{url: cfg.AMQPURL, queue: cfg.Queue, now: time.Now}
	if g.queue == "" {
		g.queue = queue.VerificationQueueName
	}
	g.publish = g.publishAMQP
	return g
}

// Deliver publishes msg as a persistent VerificationEmailEvent.
func (g *QueueGateway) Deliver(ctx context.Context, msg VerificationEmail) error {
	body, err := json.Marshal(queue.VerificationEmailEvent{
		To:          msg.To,
		FullName:    msg.FullName,
		Subject:     msg.Subject,
		Code:        msg.Code,
		ExpiresAt:   msg.ExpiresAt.UTC(),
		RequestedAt: g.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return g.publish(ctx, body)
}

func (g *QueueGateway) publishAMQP(ctx context.Context, body []byte) error {
	conn, err := amqp.DialConfig(g.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so pending mail survives broker restarts.
	if _, err := ch.QueueDeclare(g.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("rabbitmq confirm mode: %w", err)
	}

	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",      // default exchange
		g.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    g.now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq: publish nacked by broker")
	}
	return nil
}
