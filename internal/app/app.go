// Package app builds the components shared by the API server and the CLI.
package app

import (
	"database/sql"
	"os"

	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/notification"
	"asset-inventory-api/internal/repository"
	"asset-inventory-api/internal/service"
	notifyadapter "asset-inventory-api/internal/service/notification"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a JSON logger at the given level. Unknown levels fall
// back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// NewNotifier builds the mail relay client, or a no-op notifier when no relay
// is configured.
func NewNotifier(cfg config.NotificationConfig, logger *logrus.Logger) notification.Notifier {
	if cfg.URL == "" {
		logger.Info("no notifier URL configured, notifications disabled")
		return notification.Disabled(logger)
	}

	return notification.NewNotifierWithConfig(notification.NotificationConfig{
		URL:            cfg.URL,
		From:           cfg.FromAddress,
		Timeout:        cfg.Timeout,
		RetryAttempts:  cfg.RetryAttempts,
		RetryDelay:     cfg.RetryDelay,
		MaxPayloadSize: cfg.MaxPayloadSize,
	}, logger)
}

// NewNotificationService wires the notification jobs to storage and the relay.
func NewNotificationService(cfg config.NotificationConfig, db *sql.DB, notifier notification.Notifier, logger *logrus.Logger) *service.NotificationService {
	return service.NewNotificationService(
		repository.NewNotificationSettingRepository(db),
		repository.NewReportRepository(db),
		notifyadapter.NewServiceAdapter(notifier, cfg.FromAddress),
		cfg.DefaultReminderDays,
		logger,
	)
}
