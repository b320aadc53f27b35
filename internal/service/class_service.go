package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type classLifecycleRepository interface {
	UpdateStatus(ctx context.Context, userID, id string, status models.ClassStatus) (int64, error)
	UpdateAttendance(ctx context.Context, userID, id string, attended *bool) (int64, error)
	ResetClass(ctx context.Context, userID, id string) (int64, error)
	MarkHolidayByDate(ctx context.Context, userID, date string) (int64, error)
}

// UpdateStatusRequest carries the target lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MarkAttendanceRequest carries the attendance decision.
type MarkAttendanceRequest struct {
	Attended *bool `json:"attended" validate:"required"`
}

// HolidayResult reports how many classes a bulk holiday touched.
type HolidayResult struct {
	Updated int64  `json:"updated"`
	Date    string `json:"date"`
}

// ClassService drives the per-class lifecycle: the status axis and the
// attendance axis are orthogonal and never constrain each other.
type ClassService struct {
	repo      classLifecycleRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewClassService constructs the lifecycle service.
func NewClassService(repo classLifecycleRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// UpdateStatus sets the class status unconditionally. Any status may follow
// any other; only unknown values are rejected.
func (s *ClassService) UpdateStatus(ctx context.Context, userID, classID string, req UpdateStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.ClassStatus(req.Status)
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown class status")
	}

	affected, err := s.repo.UpdateStatus(ctx, userID, classID, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.invalidate(ctx, userID)
	return nil
}

// MarkAttendance records attended or missed. The class status is left
// untouched and no status precondition applies.
func (s *ClassService) MarkAttendance(ctx context.Context, userID, classID string, req MarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	affected, err := s.repo.UpdateAttendance(ctx, userID, classID, req.Attended)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.invalidate(ctx, userID)
	return nil
}

// ResetAttendance returns the class to unmarked.
func (s *ClassService) ResetAttendance(ctx context.Context, userID, classID string) error {
	affected, err := s.repo.UpdateAttendance(ctx, userID, classID, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset attendance")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.invalidate(ctx, userID)
	return nil
}

// ResetClass restores status to scheduled and clears the attendance mark in
// a single atomic write.
func (s *ClassService) ResetClass(ctx context.Context, userID, classID string) error {
	affected, err := s.repo.ResetClass(ctx, userID, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset class")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.invalidate(ctx, userID)
	return nil
}

// MarkTodayAsHoliday flips every still-scheduled class dated today to
// holiday. Confirmed or cancelled classes today stay as they are; a day with
// no matching classes is a successful zero-row update, not an error.
func (s *ClassService) MarkTodayAsHoliday(ctx context.Context, userID string) (*HolidayResult, error) {
	today := formatDate(s.now())
	affected, err := s.repo.MarkHolidayByDate(ctx, userID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark holiday")
	}
	s.invalidate(ctx, userID)
	return &HolidayResult{Updated: affected, Date: today}, nil
}

func (s *ClassService) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern(userID))
	}
}
