package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"asset-inventory-api/internal/model"
)

// NotificationSettingRepository stores per-user email preferences.
type NotificationSettingRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.NotificationSetting, error)
	ListAll(ctx context.Context) ([]model.NotificationSetting, error)
	Upsert(ctx context.Context, s *model.NotificationSetting) error
}

type notificationSettingRepository struct {
	DB *sql.DB
}

// NewNotificationSettingRepository creates a new NotificationSettingRepository.
func NewNotificationSettingRepository(db *sql.DB) NotificationSettingRepository {
	return &notificationSettingRepository{DB: db}
}

const settingColumns = "user_id, username, email, email_on_warranty_expiry, warranty_reminder_days, email_on_assignment, daily_summary, weekly_summary"

func scanSetting(row interface{ Scan(...any) error }) (*model.NotificationSetting, error) {
	var s model.NotificationSetting
	if err := row.Scan(&s.UserID, &s.Username, &s.Email, &s.EmailOnWarrantyExpiry, &s.WarrantyReminderDays,
		&s.EmailOnAssignment, &s.DailySummary, &s.WeeklySummary); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *notificationSettingRepository) GetByUserID(ctx context.Context, userID string) (*model.NotificationSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s, err := scanSetting(r.DB.QueryRowContext(ctx, `SELECT `+settingColumns+` FROM notification_settings WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get notification setting: %w", err)
	}
	return s, nil
}

// ListAll returns every user's settings ordered by username.
func (r *notificationSettingRepository) ListAll(ctx context.Context) ([]model.NotificationSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `SELECT `+settingColumns+` FROM notification_settings ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification settings: %w", err)
	}
	defer rows.Close()

	var settings []model.NotificationSetting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification setting: %w", err)
		}
		settings = append(settings, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return settings, nil
}

func (r *notificationSettingRepository) Upsert(ctx context.Context, s *model.NotificationSetting) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO notification_settings (` + settingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			email_on_warranty_expiry = EXCLUDED.email_on_warranty_expiry,
			warranty_reminder_days = EXCLUDED.warranty_reminder_days,
			email_on_assignment = EXCLUDED.email_on_assignment,
			daily_summary = EXCLUDED.daily_summary,
			weekly_summary = EXCLUDED.weekly_summary`

	if _, err := r.DB.ExecContext(ctx, query, s.UserID, s.Username, s.Email, s.EmailOnWarrantyExpiry,
		s.WarrantyReminderDays, s.EmailOnAssignment, s.DailySummary, s.WeeklySummary); err != nil {
		return fmt.Errorf("failed to save notification setting: %w", err)
	}
	return nil
}
