// Package notification delivers email notifications through an HTTP mail relay.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"
)

const userAgent = "asset-inventory-api/1.0"

// NotificationLevel represents the severity level of a notification
type NotificationLevel string

const (
	LevelInfo     NotificationLevel = "info"
	LevelWarning  NotificationLevel = "warning"
	LevelError    NotificationLevel = "error"
	LevelCritical NotificationLevel = "critical"
)

// Notifier sends notifications to the mail relay.
type Notifier interface {
	SendNotificationWithContext(ctx context.Context, notification Notification) error
	IsHealthy(ctx context.Context) bool
}

// NotificationConfig holds configuration for the notification client
type NotificationConfig struct {
	URL            string
	From           string
	Timeout        time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	MaxPayloadSize int64
}

// DefaultConfig returns a default configuration for the notification client
func DefaultConfig(url string) NotificationConfig {
	return NotificationConfig{
		URL:            url,
		From:           "inventory@localhost",
		Timeout:        10 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     time.Second,
		MaxPayloadSize: 1024 * 1024, // 1MB
	}
}

type notificationClient struct {
	config NotificationConfig
	client *http.Client
	logger *logrus.Logger
}

// NewNotifier creates a new Notifier with default configuration
func NewNotifier(url string) Notifier {
	return NewNotifierWithConfig(DefaultConfig(url), nil)
}

// NewNotifierWithConfig creates a new Notifier with custom configuration
func NewNotifierWithConfig(config NotificationConfig, logger *logrus.Logger) Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &notificationClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Notification is one email handed to the relay.
type Notification struct {
	Level     NotificationLevel `json:"level"`
	From      string            `json:"from,omitempty"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// MaxMessageLength bounds a notification body.
const MaxMessageLength = 20000

// Validate checks if the notification is valid
func (n *Notification) Validate() error {
	if n.Level == "" {
		return fmt.Errorf("notification level is required")
	}
	switch n.Level {
	case LevelInfo, LevelWarning, LevelError, LevelCritical:
	default:
		return fmt.Errorf("invalid notification level: %s", n.Level)
	}
	if n.Recipient == "" {
		return fmt.Errorf("notification recipient is required")
	}
	if _, err := mail.ParseAddress(n.Recipient); err != nil {
		return fmt.Errorf("invalid recipient address %q", n.Recipient)
	}
	if n.Subject == "" {
		return fmt.Errorf("notification subject is required")
	}
	if n.Message == "" {
		return fmt.Errorf("notification message is required")
	}
	if len(n.Message) > MaxMessageLength {
		return fmt.Errorf("notification message too long (max %d characters)", MaxMessageLength)
	}
	return nil
}

// permanentError marks failures that a retry cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return &permanentError{err: err} }

// SendNotificationWithContext validates and posts a notification, retrying
// transient failures with linear backoff.
func (c *notificationClient) SendNotificationWithContext(ctx context.Context, notification Notification) error {
	if err := notification.Validate(); err != nil {
		return fmt.Errorf("invalid notification: %w", err)
	}

	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now()
	}
	if notification.Source == "" {
		notification.Source = "asset-inventory-api"
	}
	if notification.From == "" {
		notification.From = c.config.From
	}

	log := c.logger.WithFields(logrus.Fields{
		"recipient": notification.Recipient,
		"subject":   notification.Subject,
	})

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			log.WithField("attempt", attempt+1).Debug("retrying notification send")
		}

		err := c.sendNotificationAttempt(ctx, notification)
		if err == nil {
			return nil
		}

		lastErr = err
		log.WithError(err).WithField("attempt", attempt+1).Warn("notification send attempt failed")

		var perm *permanentError
		if errors.As(err, &perm) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("failed to send notification after %d attempts: %w", c.config.RetryAttempts+1, lastErr)
}

func (c *notificationClient) sendNotificationAttempt(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return permanent(fmt.Errorf("failed to marshal notification: %w", err))
	}

	if int64(len(payload)) > c.config.MaxPayloadSize {
		return permanent(fmt.Errorf("notification payload too large: %d bytes (max %d)", len(payload), c.config.MaxPayloadSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewBuffer(payload))
	if err != nil {
		return permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return permanent(fmt.Errorf("mail relay rejected notification with status %d: %s", resp.StatusCode, string(body)))
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("mail relay returned error status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// IsHealthy reports whether the relay answers its health endpoint without a
// server error.
func (c *notificationClient) IsHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL+"/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

// Disabled returns a Notifier that accepts and discards every notification.
// It is used when no relay URL is configured.
func Disabled(logger *logrus.Logger) Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return disabledNotifier{logger: logger}
}

type disabledNotifier struct {
	logger *logrus.Logger
}

func (d disabledNotifier) SendNotificationWithContext(_ context.Context, n Notification) error {
	d.logger.WithFields(logrus.Fields{
		"recipient": n.Recipient,
		"subject":   n.Subject,
	}).Debug("notifications disabled, dropping message")
	return nil
}

func (d disabledNotifier) IsHealthy(context.Context) bool { return true }
