// The notifier consumes CRM events and delivers password reset links.
// Delivery is a log line; wire a mailer here to send real email.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gartstein/crm/internal/crm/config"
	"github.com/gartstein/crm/internal/crm/events"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, logger)
	consumer.RegisterHandler(resetMailer(cfg.ResetURL, logger))
	consumer.Start(ctx)

	logger.Info("Notifier running", zap.String("topic", cfg.Kafka.Topic))
	<-ctx.Done()
	consumer.Close()
	<-consumer.Done()
	logger.Info("Notifier stopped")
}

// resetMailer handles password_reset_requested events; other types are ignored.
func resetMailer(resetURL string, logger *zap.Logger) func(context.Context, events.Event) error {
	return func(_ context.Context, event events.Event) error {
		if event.Type != events.PasswordResetRequested {
			return nil
		}
		uid, token := event.Data["uid"], event.Data["token"]
		if uid == "" || token == "" {
			return fmt.Errorf("reset event for %s has no link", event.Subject)
		}
		logger.Info("Password reset requested",
			zap.String("email", event.Data["email"]),
			zap.String("uid", uid),
		)
		logger.Debug("Password reset link", zap.String("link", resetLink(resetURL, uid, token)))
		return nil
	}
}

func resetLink(base, uid, token string) string {
	return strings.TrimRight(base, "/") + "/" + uid + "/" + token
}
