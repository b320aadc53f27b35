package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type dashboardClassReader interface {
	ListByDate(ctx context.Context, userID, date string) ([]models.ScheduledClass, error)
	List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.ScheduledClass, int, error)
	ListMarked(ctx context.Context, userID, subjectID string) ([]models.ScheduledClass, error)
}

type dashboardProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

const upcomingClassLimit = 5

// DashboardService assembles the greeting payload: today's classes, the next
// few upcoming ones and overall attendance, cached briefly per user.
type DashboardService struct {
	classes  dashboardClassReader
	profiles dashboardProfileReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(classes dashboardClassReader, profiles dashboardProfileReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		classes:  classes,
		profiles: profiles,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// GetSummary returns the dashboard payload for the user, serving from cache
// when a fresh copy exists.
func (s *DashboardService) GetSummary(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	today := formatDate(s.now())
	key := dashboardCacheKey(userID, today)

	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	summary, err := s.build(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context, userID, today string) (*models.DashboardSummary, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	todayClasses, err := s.classes.ListByDate(ctx, userID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's classes")
	}

	tomorrow := formatDate(s.now().AddDate(0, 0, 1))
	upcoming, _, err := s.classes.List(ctx, userID, models.ClassFilter{
		DateFrom: tomorrow,
		Page:     1,
		PageSize: upcomingClassLimit,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upcoming classes")
	}

	marked, err := s.classes.ListMarked(ctx, userID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	return &models.DashboardSummary{
		UserName:        profile.UserName,
		Date:            today,
		TodayClasses:    todayClasses,
		UpcomingClasses: upcoming,
		Stats:           ComputeStats(marked),
	}, nil
}

func dashboardCacheKey(userID, date string) string {
	return "dashboard:" + userID + ":" + date
}
