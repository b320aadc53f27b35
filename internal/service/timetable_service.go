package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type timetableRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Timetable, error)
	FindByID(ctx context.Context, userID, id string) (*models.Timetable, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	SetActiveExclusive(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error)
	PromoteAny(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error)
	AddSlot(ctx context.Context, slot *models.TimeSlot) error
	RemoveSlot(ctx context.Context, timetableID, slotID string) (int64, error)
}

type timetableClassCleaner interface {
	DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, userID, timetableID string) (int64, error)
}

// CreateTimetableRequest names a new timetable.
type CreateTimetableRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddSlotRequest appends a recurring weekly slot to a timetable.
type AddSlotRequest struct {
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// DeleteTimetableResult reports the outcome of a timetable delete.
type DeleteTimetableResult struct {
	ClassesRemoved int64 `json:"classes_removed"`
	Promoted       bool  `json:"promoted"`
}

// TimetableService manages timetables and keeps the single-active invariant:
// at most one timetable per user is active, the first one created starts
// active, and deleting the active one promotes a survivor when any remain.
type TimetableService struct {
	repo      timetableRepository
	classes   timetableClassCleaner
	tx        txProvider
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService creates a new timetable service.
func NewTimetableService(repo timetableRepository, classes timetableClassCleaner, tx txProvider, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, classes: classes, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns the user's timetables with slots attached.
func (s *TimetableService) List(ctx context.Context, userID string) ([]models.Timetable, error) {
	timetables, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Get returns a single timetable.
func (s *TimetableService) Get(ctx context.Context, userID, id string) (*models.Timetable, error) {
	timetable, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

// Create adds a timetable. The user's first timetable becomes active
// immediately so schedule generation has a source to draw from.
func (s *TimetableService) Create(ctx context.Context, userID string, req CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count timetables")
	}

	timetable := &models.Timetable{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		IsActive: count == 0,
	}
	if err := s.repo.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return timetable, nil
}

// Activate makes the given timetable the active one, deactivating every other
// timetable of the user inside a single transaction.
func (s *TimetableService) Activate(ctx context.Context, userID, id string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	affected, err := s.repo.SetActiveExclusive(ctx, tx, userID, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate timetable")
		return err
	}
	if affected == 0 {
		err = appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit activation")
		return err
	}
	return nil
}

// Delete removes a timetable, its slots and every class generated from it.
// When the deleted timetable was the active one, an arbitrary survivor is
// promoted so the user keeps an active timetable whenever one exists.
func (s *TimetableService) Delete(ctx context.Context, userID, id string) (*DeleteTimetableResult, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	classes, err := s.classes.DeleteByTimetable(ctx, tx, userID, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove generated classes")
		return nil, err
	}
	affected, err := s.repo.Delete(ctx, tx, userID, id)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
		return nil, err
	}
	if affected == 0 {
		err = appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		return nil, err
	}
	promoted, err := s.repo.PromoteAny(ctx, tx, userID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote timetable")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable delete")
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern(userID))
	}
	s.logger.Info("timetable deleted",
		zap.String("timetable_id", id),
		zap.Int64("classes_removed", classes),
		zap.Bool("promoted", promoted > 0),
	)
	return &DeleteTimetableResult{ClassesRemoved: classes, Promoted: promoted > 0}, nil
}

// AddSlot appends a weekly slot to the timetable after validating ownership
// and the time range.
func (s *TimetableService) AddSlot(ctx context.Context, userID, timetableID string, req AddSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "times must use HH:MM format")
	}
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	if _, err := s.Get(ctx, userID, timetableID); err != nil {
		return nil, err
	}

	slot := &models.TimeSlot{
		TimetableID: timetableID,
		SubjectID:   req.SubjectID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := s.repo.AddSlot(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add slot")
	}
	return slot, nil
}

// RemoveSlot deletes a slot from the timetable.
func (s *TimetableService) RemoveSlot(ctx context.Context, userID, timetableID, slotID string) error {
	if _, err := s.Get(ctx, userID, timetableID); err != nil {
		return err
	}
	affected, err := s.repo.RemoveSlot(ctx, timetableID, slotID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove slot")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}
	return nil
}

func validClock(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	hh := v[:2]
	mm := v[3:]
	for _, c := range hh + mm {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh <= "23" && mm <= "59"
}
