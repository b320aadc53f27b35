package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type settingsRepository interface {
	GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error)
	UpsertNotificationSettings(ctx context.Context, settings *models.NotificationSettings) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *models.UserProfile) error
}

// UpdateNotificationSettingsRequest toggles reminders and tunes their windows.
type UpdateNotificationSettingsRequest struct {
	Enabled            bool `json:"enabled"`
	BeforeClassMinutes int  `json:"before_class_minutes" validate:"min=1,max=120"`
	AfterClassMinutes  int  `json:"after_class_minutes" validate:"min=1,max=120"`
}

// UpdateProfileRequest changes the display name used in greetings.
type UpdateProfileRequest struct {
	UserName string `json:"user_name" validate:"required,max=100"`
}

// SettingsService manages notification settings and the user profile.
type SettingsService struct {
	repo      settingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo settingsRepository, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// GetNotificationSettings returns the stored settings or the defaults.
func (s *SettingsService) GetNotificationSettings(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	settings, err := s.repo.GetNotificationSettings(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification settings")
	}
	return settings, nil
}

// UpdateNotificationSettings saves new settings for the user.
func (s *SettingsService) UpdateNotificationSettings(ctx context.Context, userID string, req UpdateNotificationSettingsRequest) (*models.NotificationSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := &models.NotificationSettings{
		UserID:             userID,
		Enabled:            req.Enabled,
		BeforeClassMinutes: req.BeforeClassMinutes,
		AfterClassMinutes:  req.AfterClassMinutes,
	}
	if err := s.repo.UpsertNotificationSettings(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save notification settings")
	}
	s.logger.Info("notification settings updated", zap.String("user_id", userID), zap.Bool("enabled", settings.Enabled))
	return settings, nil
}

// GetProfile returns the user's profile.
func (s *SettingsService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile saves the user's display name.
func (s *SettingsService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.UserProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	profile := &models.UserProfile{UserID: userID, UserName: strings.TrimSpace(req.UserName)}
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	return profile, nil
}
