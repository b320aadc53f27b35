package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type scheduleTimetableReader interface {
	FindActive(ctx context.Context, userID string) (*models.Timetable, error)
	FindByID(ctx context.Context, userID, id string) (*models.Timetable, error)
}

type scheduleClassWriter interface {
	List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.ScheduledClass, int, error)
	DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, userID, timetableID string) (int64, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, classes []models.ScheduledClass) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type generationCounter interface {
	AddGeneratedClasses(n int)
}

// GenerateScheduleRequest carries the expansion horizon. The 1-12 month
// bound is checked before the expansion runs; the expansion itself accepts
// any value.
type GenerateScheduleRequest struct {
	Months int `json:"months" validate:"required,min=1,max=12"`
}

// GenerateScheduleResponse summarises an expansion run.
type GenerateScheduleResponse struct {
	TimetableID string `json:"timetable_id"`
	Generated   int    `json:"generated"`
	Replaced    int64  `json:"replaced"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// ScheduleService expands the active timetable into dated class instances.
type ScheduleService struct {
	timetables scheduleTimetableReader
	classes    scheduleClassWriter
	tx         txProvider
	cache      cacheInvalidator
	metrics    generationCounter
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewScheduleService wires generator dependencies. metrics may be nil.
func NewScheduleService(timetables scheduleTimetableReader, classes scheduleClassWriter, tx txProvider, cache cacheInvalidator, metrics generationCounter, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		timetables: timetables,
		classes:    classes,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate expands the user's active timetable over the horizon and replaces
// every previously generated class of that timetable. Any status or
// attendance recorded on the replaced batch is discarded; warning the user
// beforehand is the caller's responsibility.
func (s *ScheduleService) Generate(ctx context.Context, userID string, req GenerateScheduleRequest) (*GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "months must be between 1 and 12")
	}

	timetable, err := s.timetables.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active timetable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active timetable")
	}

	start := startOfDay(s.now())
	classes := ExpandTimetable(timetable, req.Months, start)

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	replaced, err := s.classes.DeleteByTimetable(ctx, tx, userID, timetable.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace previous schedule")
		return nil, err
	}
	if err = s.classes.BulkInsert(ctx, tx, classes); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated schedule")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generated schedule")
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, dashboardCachePattern(userID))
	}
	if s.metrics != nil {
		s.metrics.AddGeneratedClasses(len(classes))
	}

	s.logger.Info("schedule generated",
		zap.String("timetable_id", timetable.ID),
		zap.Int("generated", len(classes)),
		zap.Int64("replaced", replaced),
	)

	return &GenerateScheduleResponse{
		TimetableID: timetable.ID,
		Generated:   len(classes),
		Replaced:    replaced,
		From:        formatDate(start),
		To:          formatDate(horizonEnd(start, req.Months)),
	}, nil
}

// ListClasses returns the user's scheduled classes matching the filter.
func (s *ScheduleService) ListClasses(ctx context.Context, userID string, filter models.ClassFilter) ([]models.ScheduledClass, *models.Pagination, error) {
	classes, total, err := s.classes.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExpandTimetable walks day by day from start through horizonMonths×30 days
// (a fixed 30-day month approximation, both endpoints inclusive) and emits
// one scheduled class per slot whose weekday matches the date. A horizon of
// zero or less still yields the start date's matches.
func ExpandTimetable(timetable *models.Timetable, horizonMonths int, start time.Time) []models.ScheduledClass {
	classes := make([]models.ScheduledClass, 0)
	if timetable == nil || len(timetable.Slots) == 0 {
		return classes
	}

	end := horizonEnd(start, horizonMonths)
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		for _, slot := range timetable.SlotsForDay(dayOfWeek(date)) {
			classes = append(classes, models.ScheduledClass{
				ID:          uuid.NewString(),
				UserID:      timetable.UserID,
				SubjectID:   slot.SubjectID,
				TimetableID: timetable.ID,
				Date:        formatDate(date),
				StartTime:   slot.StartTime,
				EndTime:     slot.EndTime,
				Status:      models.StatusScheduled,
				Attended:    nil,
			})
		}
	}
	return classes
}

func horizonEnd(start time.Time, horizonMonths int) time.Time {
	end := start.AddDate(0, 0, horizonMonths*30)
	if end.Before(start) {
		return start
	}
	return end
}

func dashboardCachePattern(userID string) string {
	return "dashboard:" + userID + "*"
}
