package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendly-api/internal/models"
)

func TestTimetableRepositoryCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetables")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	timetable := &models.Timetable{UserID: "user-1", Name: "Semester 1", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), timetable))
	assert.NotEmpty(t, timetable.ID)
	assert.False(t, timetable.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindActive(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, is_active, created_at FROM timetables WHERE user_id = $1 AND is_active = TRUE")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "is_active", "created_at"}).
			AddRow("tt-1", "user-1", "Semester 1", true, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE timetable_id = $1 ORDER BY position ASC")).
		WithArgs("tt-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "timetable_id", "subject_id", "day_of_week", "start_time", "end_time", "position"}).
			AddRow("slot-1", "tt-1", "subj-1", 1, "10:00", "11:00", 1))

	timetable, err := repo.FindActive(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, timetable.IsActive)
	require.Len(t, timetable.Slots, 1)
	assert.Equal(t, 1, timetable.Slots[0].DayOfWeek)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryFindActiveNone(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("is_active = TRUE")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "is_active", "created_at"}))

	_, err := repo.FindActive(context.Background(), "user-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySetActiveExclusive(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET is_active = FALSE WHERE user_id = $1 AND id <> $2")).
		WithArgs("user-1", "tt-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET is_active = TRUE WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "tt-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.SetActiveExclusive(context.Background(), db, "user-1", "tt-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteRemovesSlotsFirst(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_slots WHERE timetable_id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "tt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), db, "user-1", "tt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryPromoteAny(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET is_active = TRUE WHERE id = (")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	promoted, err := repo.PromoteAny(context.Background(), db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), promoted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryRemoveSlotsBySubject(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_slots WHERE subject_id = $1 AND timetable_id IN (SELECT id FROM timetables WHERE user_id = $2)")).
		WithArgs("subj-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := repo.RemoveSlotsBySubject(context.Background(), db, "user-1", "subj-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryAddSlot(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	slot := &models.TimeSlot{TimetableID: "tt-1", SubjectID: "subj-1", DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, repo.AddSlot(context.Background(), slot))
	assert.NotEmpty(t, slot.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
