package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/crm/internal/crm/auth"
	"github.com/gartstein/crm/internal/crm/config"
	"github.com/gartstein/crm/internal/crm/controller"
	"github.com/gartstein/crm/internal/crm/db"
	"github.com/gartstein/crm/internal/crm/events"
	"github.com/gartstein/crm/internal/crm/handlers"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/gartstein/crm/internal/crm/tokens"
	"go.uber.org/zap"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := connectDatabase(&cfg.DB, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := events.EnsureTopic(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions, logger); err != nil {
		logger.Warn("failed to ensure Kafka topic", zap.Error(err))
	}
	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	defer producer.Close()

	resetTokens := tokens.NewGenerator(cfg.ResetSecret, cfg.ResetTimeout)
	accounts := controller.NewAccountService(repo, resetTokens, producer, logger)
	documents := controller.NewDocumentService(repo, producer, logger)
	records := controller.NewRecordService(repo, logger)

	handler := handlers.NewHandler(accounts, documents, records, serializers.Media{BaseURL: cfg.MediaURL}, logger)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	server.RegisterHTTPHandler(handler.Echo(auth.Middleware(cfg.JWTSecret, repo, logger)))

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// connectDatabase opens the repository, retrying with exponential backoff
// while the database comes up.
func connectDatabase(cfg *db.Config, logger *zap.Logger) (*db.Repository, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Minute

	var repo *db.Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = db.NewRepository(cfg)
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("database not ready", zap.Error(err), zap.Duration("retry_in", wait))
	})
	return repo, err
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
