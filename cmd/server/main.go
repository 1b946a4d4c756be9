package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/learn-connect/internal/config"
	"github.com/iliyamo/learn-connect/internal/database"
	"github.com/iliyamo/learn-connect/internal/handler"
	"github.com/iliyamo/learn-connect/internal/metrics"
	"github.com/iliyamo/learn-connect/internal/middleware"
	"github.com/iliyamo/learn-connect/internal/repository"
	"github.com/iliyamo/learn-connect/internal/router"
	"github.com/iliyamo/learn-connect/internal/service"
	"github.com/iliyamo/learn-connect/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db, cfg.DBName); err != nil {
			logger.Fatal("database migrate failed", zap.Error(err))
		}
		logger.Info("database schema up to date")
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, profile cache disabled")
	} else {
		defer rdb.Close()
	}
	cache := repository.NewProfileCache(cfg.Cache, rdb)

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	auth := service.NewAuthService(users, newGateway(cfg.Mail, logger), tokens, logger.Named("auth"), cfg.Mail.Timeout)
	profiles := service.NewProfileService(users, cache, logger.Named("profile"))

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(echomw.Recover())
	e.Use(router.CORS(cfg.CORSOrigins))

	router.RegisterRoutes(e)
	router.RegisterMetrics(e, metrics.NewRegistry())
	router.RegisterAuth(e,
		handler.NewAuthHandler(auth, logger.Named("auth")),
		handler.NewProfileHandler(profiles, logger.Named("profile")),
		tokens,
	)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("mail_transport", cfg.Mail.Transport))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// newGateway picks the verification mail transport. An unconfigured SMTP
// relay is still returned: its deliveries fail and accounts are verified
// at registration.
func newGateway(cfg config.MailConfig, logger *zap.Logger) service.NotificationGateway {
	switch cfg.Transport {
	case config.MailTransportQueue:
		return service.NewQueueGateway(cfg)
	case config.MailTransportSMTP:
		if cfg.SMTPHost == "" {
			logger.Warn("SMTP_HOST not set, new accounts will be verified automatically")
		}
		return service.NewSMTPGateway(cfg)
	default:
		logger.Warn("unknown MAIL_TRANSPORT, falling back to smtp", zap.String("transport", cfg.Transport))
		return service.NewSMTPGateway(cfg)
	}
}
