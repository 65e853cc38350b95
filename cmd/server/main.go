package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/familychat/auth-backend/configs"
	"github.com/familychat/auth-backend/internal/application/services"
	"github.com/familychat/auth-backend/internal/core/ports"
	"github.com/familychat/auth-backend/internal/infrastructure/db"
	"github.com/familychat/auth-backend/internal/infrastructure/email"
	"github.com/familychat/auth-backend/internal/infrastructure/health"
	"github.com/familychat/auth-backend/internal/infrastructure/httpserver"
	"github.com/familychat/auth-backend/internal/infrastructure/redis"
	"github.com/familychat/auth-backend/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("Starting auth backend...")

	repo, checkers, closer, err := openAccountStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open account store")
	}
	defer closer.Close()

	sender, err := email.NewSender(&cfg.Email, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize mail sender")
	}
	emailService, err := email.NewEmailService(&email.EmailConfig{
		AppName:     cfg.Email.AppName,
		SendTimeout: cfg.Email.SendTimeout,
	}, sender, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize email service")
	}
	logger.WithField("provider", cfg.Email.Provider).Info("Mail sender ready")

	accountService := services.NewAccountService(repo, emailService, &services.AccountServiceConfig{
		OTPTTL: cfg.OTP.TTL,
	}, logger)

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustProxy:     cfg.Server.TrustProxy,
		BodyLimit:      cfg.Server.BodyLimit,
		Environment:    cfg.Server.Environment,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		AccountService: accountService,
		HealthCheckers: checkers,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

// openAccountStore connects the configured backend and returns the
// repository together with its readiness checkers and a closer for shutdown.
func openAccountStore(cfg *config.Config, logger *logrus.Logger) (ports.AccountRepository, []ports.HealthChecker, io.Closer, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Connected to Redis successfully")
		checkers := []ports.HealthChecker{health.NewRedisHealthChecker(client)}
		return repositories.NewAccountRedisRepository(client, logger), checkers, client, nil

	default:
		database, err := db.NewDatabaseWithConfig(&cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Connected to database successfully")

		if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
			_ = database.Close()
			return nil, nil, nil, err
		}
		logger.WithField("path", cfg.Database.MigrationsPath).Info("Migrations applied")

		checkers := []ports.HealthChecker{health.NewDBHealthChecker(database)}
		return repositories.NewAccountRepository(database, logger), checkers, database, nil
	}
}
