package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/attendly/attendly-api/internal/models"
)

// SettingsRepository persists per-user notification settings and profile.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new repository instance.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetNotificationSettings returns the user's settings, falling back to
// defaults when the user has never saved any.
func (r *SettingsRepository) GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	const query = `SELECT user_id, enabled, before_class_minutes, after_class_minutes FROM notification_settings WHERE user_id = $1`
	var settings models.NotificationSettings
	if err := r.db.GetContext(ctx, &settings, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultNotificationSettings(userID)
			return &defaults, nil
		}
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	return &settings, nil
}

// UpsertNotificationSettings writes the user's settings.
func (r *SettingsRepository) UpsertNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error {
	const query = `INSERT INTO notification_settings (user_id, enabled, before_class_minutes, after_class_minutes)
		VALUES (:user_id, :enabled, :before_class_minutes, :after_class_minutes)
		ON CONFLICT (user_id) DO UPDATE SET enabled = EXCLUDED.enabled,
			before_class_minutes = EXCLUDED.before_class_minutes,
			after_class_minutes = EXCLUDED.after_class_minutes`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert notification settings: %w", err)
	}
	return nil
}

// GetProfile returns the user's profile, defaulting the display name.
func (r *SettingsRepository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	const query = `SELECT user_id, user_name FROM user_profiles WHERE user_id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.UserProfile{UserID: userID, UserName: "Student"}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// UpsertProfile writes the user's profile.
func (r *SettingsRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	const query = `INSERT INTO user_profiles (user_id, user_name) VALUES (:user_id, :user_name)
		ON CONFLICT (user_id) DO UPDATE SET user_name = EXCLUDED.user_name`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
