package service

import (
	"context"
	"errors"

	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"
	apperrors "asset-inventory-api/pkg/errors"
	"asset-inventory-api/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Settings returns one user's email preferences.
func (s *NotificationService) Settings(ctx context.Context, userID string) (*model.NotificationSetting, error) {
	st, err := s.settings.GetByUserID(ctx, userID)
	if err != nil {
		return nil, mapSettingError(err, "retrieve notification settings")
	}
	return st, nil
}

// ListSettings returns every user's email preferences.
func (s *NotificationService) ListSettings(ctx context.Context) ([]model.NotificationSetting, error) {
	settings, err := s.settings.ListAll(ctx)
	if err != nil {
		return nil, mapSettingError(err, "list notification settings")
	}
	if settings == nil {
		settings = []model.NotificationSetting{}
	}
	return settings, nil
}

// SaveSettings creates or replaces a user's email preferences.
func (s *NotificationService) SaveSettings(ctx context.Context, st model.NotificationSetting) (*model.NotificationSetting, error) {
	if errs := validation.ValidateNotificationSetting(&st, s.defaultReminderDays); len(errs) > 0 {
		return nil, apperrors.ValidationErrorWithDetails("invalid notification settings", errs)
	}

	if err := s.settings.Upsert(ctx, &st); err != nil {
		return nil, mapSettingError(err, "save notification settings")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  st.UserID,
		"warranty": st.EmailOnWarrantyExpiry,
		"assign":   st.EmailOnAssignment,
		"daily":    st.DailySummary,
		"weekly":   st.WeeklySummary,
	}).Info("notification settings saved")

	return &st, nil
}

func mapSettingError(err error, operation string) error {
	switch {
	case errors.Is(err, repository.ErrSettingNotFound):
		return apperrors.NotFoundError("Notification settings")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.TimeoutError(operation)
	default:
		return apperrors.DatabaseError("failed to "+operation, err)
	}
}
