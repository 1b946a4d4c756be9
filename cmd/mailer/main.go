// Command mailer drains the verification mail queue and delivers each
// message through the SMTP relay.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/learn-connect/internal/config"
	"github.com/iliyamo/learn-connect/internal/queue"
	"github.com/iliyamo/learn-connect/internal/service"
)

func main() {
	_ = godotenv.Load()
	logger, err := newLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.LoadMailConfig()
	if cfg.SMTPHost == "" {
		logger.Fatal("SMTP_HOST is required for the mailer")
	}
	smtpGW := service.NewSMTPGateway(cfg)

	c := &queue.Consumer{
		URL:     cfg.AMQPURL,
		Queue:   cfg.Queue,
		Log:     logger,
		Timeout: cfg.Timeout,
		Handle:  deliverWith(smtpGW),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("mailer started", zap.String("queue", cfg.Queue))
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mailer stopped", zap.Error(err))
		return
	}
	logger.Info("mailer stopped")
}

// deliverWith adapts a queued event to the gateway.
func deliverWith(gw service.NotificationGateway) queue.Handler {
	return func(ctx context.Context, ev queue.VerificationEmailEvent) error {
		return gw.Deliver(ctx, service.VerificationEmail{
			To:        ev.To,
			FullName:  ev.FullName,
			Subject:   ev.Subject,
			Code:      ev.Code,
			ExpiresAt: ev.ExpiresAt,
		})
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if (config.Config{Env: env}).Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
