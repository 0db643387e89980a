package notification

import (
	"context"

	"asset-inventory-api/internal/notification"
	"asset-inventory-api/internal/service"
)

// ServiceAdapter adapts the mail relay client to the service layer's Mailer.
type ServiceAdapter struct {
	client notification.Notifier
	from   string
}

// NewServiceAdapter creates a new notification service adapter. from, when
// set, overrides the client's default sender.
func NewServiceAdapter(client notification.Notifier, from string) *ServiceAdapter {
	return &ServiceAdapter{
		client: client,
		from:   from,
	}
}

var _ service.Mailer = (*ServiceAdapter)(nil)

// SendEmail converts a service email into a relay notification and sends it.
func (a *ServiceAdapter) SendEmail(ctx context.Context, email service.Email) error {
	metadata := make(map[string]string, len(email.Metadata)+1)
	for k, v := range email.Metadata {
		metadata[k] = v
	}
	metadata["notification_type"] = string(email.Kind)

	return a.client.SendNotificationWithContext(ctx, notification.Notification{
		Level:     mapNotificationLevel(email.Kind),
		From:      a.from,
		Recipient: email.To,
		Subject:   email.Subject,
		Message:   email.Body,
		Metadata:  metadata,
	})
}

// mapNotificationLevel maps service email kinds to client notification levels
func mapNotificationLevel(kind service.EmailKind) notification.NotificationLevel {
	switch kind {
	case service.EmailWarrantyExpiry:
		return notification.LevelWarning
	default:
		return notification.LevelInfo
	}
}
