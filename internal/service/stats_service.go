package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type markedClassReader interface {
	ListMarked(ctx context.Context, userID, subjectID string) ([]models.ScheduledClass, error)
}

// StatsService derives attendance statistics from marked classes. It is
// read-only and recomputes on every call; the class collection stays the
// single source of truth.
type StatsService struct {
	classes markedClassReader
	logger  *zap.Logger
}

// NewStatsService constructs the statistics service.
func NewStatsService(classes markedClassReader, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{classes: classes, logger: logger}
}

// GetAttendanceStats aggregates the user's marked classes, optionally
// restricted to one subject. An unknown subject id simply yields zeros.
func (s *StatsService) GetAttendanceStats(ctx context.Context, userID, subjectID string) (*models.AttendanceStats, error) {
	classes, err := s.classes.ListMarked(ctx, userID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marked classes")
	}
	stats := ComputeStats(classes)
	return &stats, nil
}

// ComputeStats counts attendance over classes that carry a mark. Unmarked
// classes contribute nothing. Percentage is round-half-up and guarded
// against an empty set.
func ComputeStats(classes []models.ScheduledClass) models.AttendanceStats {
	var stats models.AttendanceStats
	for _, class := range classes {
		switch class.Mark() {
		case models.MarkAttended:
			stats.AttendedClasses++
		case models.MarkMissed:
			stats.MissedClasses++
		default:
			continue
		}
		stats.TotalClasses++
	}
	if stats.TotalClasses > 0 {
		stats.Percentage = roundPercentage(stats.AttendedClasses, stats.TotalClasses)
	}
	return stats
}

func roundPercentage(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
