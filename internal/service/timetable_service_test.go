package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

type timetableRepoStub struct {
	count          int
	found          *models.Timetable
	findErr        error
	created        *models.Timetable
	activeAffected int64
	deleteAffected int64
	promoted       int64
	slotAffected   int64
	addedSlot      *models.TimeSlot
}

func (s *timetableRepoStub) ListByUser(ctx context.Context, userID string) ([]models.Timetable, error) {
	return nil, nil
}

func (s *timetableRepoStub) FindByID(ctx context.Context, userID, id string) (*models.Timetable, error) {
	return s.found, s.findErr
}

func (s *timetableRepoStub) CountByUser(ctx context.Context, userID string) (int, error) {
	return s.count, nil
}

func (s *timetableRepoStub) Create(ctx context.Context, timetable *models.Timetable) error {
	timetable.ID = "tt-new"
	s.created = timetable
	return nil
}

func (s *timetableRepoStub) SetActiveExclusive(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error) {
	return s.activeAffected, nil
}

func (s *timetableRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error) {
	return s.deleteAffected, nil
}

func (s *timetableRepoStub) PromoteAny(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error) {
	return s.promoted, nil
}

func (s *timetableRepoStub) AddSlot(ctx context.Context, slot *models.TimeSlot) error {
	slot.ID = "slot-new"
	s.addedSlot = slot
	return nil
}

func (s *timetableRepoStub) RemoveSlot(ctx context.Context, timetableID, slotID string) (int64, error) {
	return s.slotAffected, nil
}

type classCleanerStub struct {
	removed int64
}

func (s *classCleanerStub) DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, userID, timetableID string) (int64, error) {
	return s.removed, nil
}

func TestTimetableServiceCreateFirstBecomesActive(t *testing.T) {
	repo := &timetableRepoStub{count: 0}
	svc := NewTimetableService(repo, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	timetable, err := svc.Create(context.Background(), "user-1", CreateTimetableRequest{Name: "  Semester 1  "})
	require.NoError(t, err)
	assert.True(t, timetable.IsActive)
	assert.Equal(t, "Semester 1", timetable.Name)
}

func TestTimetableServiceCreateSecondStaysInactive(t *testing.T) {
	repo := &timetableRepoStub{count: 1}
	svc := NewTimetableService(repo, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	timetable, err := svc.Create(context.Background(), "user-1", CreateTimetableRequest{Name: "Semester 2"})
	require.NoError(t, err)
	assert.False(t, timetable.IsActive)
}

func TestTimetableServiceActivate(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &timetableRepoStub{activeAffected: 1}
	svc := NewTimetableService(repo, &classCleanerStub{}, tx, nil, nil, zap.NewNop())

	require.NoError(t, svc.Activate(context.Background(), "user-1", "tt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceActivateNotFound(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &timetableRepoStub{activeAffected: 0}
	svc := NewTimetableService(repo, &classCleanerStub{}, tx, nil, nil, zap.NewNop())

	err := svc.Activate(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceDeletePromotesSurvivor(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &timetableRepoStub{deleteAffected: 1, promoted: 1}
	cache := &invalidatorStub{}
	svc := NewTimetableService(repo, &classCleanerStub{removed: 12}, tx, cache, nil, zap.NewNop())

	result, err := svc.Delete(context.Background(), "user-1", "tt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.ClassesRemoved)
	assert.True(t, result.Promoted)
	assert.Len(t, cache.patterns, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceDeleteNotFound(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &timetableRepoStub{deleteAffected: 0}
	svc := NewTimetableService(repo, &classCleanerStub{}, tx, nil, nil, zap.NewNop())

	_, err := svc.Delete(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceAddSlot(t *testing.T) {
	repo := &timetableRepoStub{found: &models.Timetable{ID: "tt-1", UserID: "user-1"}}
	svc := NewTimetableService(repo, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	slot, err := svc.AddSlot(context.Background(), "user-1", "tt-1", AddSlotRequest{
		SubjectID: uuid.NewString(),
		DayOfWeek: 1,
		StartTime: "10:00",
		EndTime:   "11:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "tt-1", slot.TimetableID)
	assert.Equal(t, 1, slot.DayOfWeek)
	require.NotNil(t, repo.addedSlot)
}

func TestTimetableServiceAddSlotRejectsBadClock(t *testing.T) {
	repo := &timetableRepoStub{found: &models.Timetable{ID: "tt-1"}}
	svc := NewTimetableService(repo, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	for _, clock := range []string{"9:00", "24:00", "10:60", "ab:cd", "10-00"} {
		_, err := svc.AddSlot(context.Background(), "user-1", "tt-1", AddSlotRequest{
			SubjectID: uuid.NewString(),
			DayOfWeek: 1,
			StartTime: clock,
			EndTime:   "23:59",
		})
		require.Error(t, err, clock)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestTimetableServiceAddSlotRejectsInvertedRange(t *testing.T) {
	svc := NewTimetableService(&timetableRepoStub{}, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.AddSlot(context.Background(), "user-1", "tt-1", AddSlotRequest{
		SubjectID: uuid.NewString(),
		DayOfWeek: 1,
		StartTime: "11:00",
		EndTime:   "10:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceAddSlotUnknownTimetable(t *testing.T) {
	repo := &timetableRepoStub{findErr: sql.ErrNoRows}
	svc := NewTimetableService(repo, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	_, err := svc.AddSlot(context.Background(), "user-1", "missing", AddSlotRequest{
		SubjectID: uuid.NewString(),
		DayOfWeek: 1,
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceRemoveSlotNotFound(t *testing.T) {
	repo := &timetableRepoStub{found: &models.Timetable{ID: "tt-1"}, slotAffected: 0}
	svc := NewTimetableService(repo, &classCleanerStub{}, nil, nil, nil, zap.NewNop())

	err := svc.RemoveSlot(context.Background(), "user-1", "tt-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
