package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/attendly-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func classRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "subject_id", "timetable_id", "date", "start_time", "end_time",
		"status", "attended", "reminder_sent", "attendance_reminder_sent",
	})
}

func TestClassRepositoryListFilters(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	rows := classRows().
		AddRow("class-1", "user-1", "subj-1", "tt-1", "2026-01-05", "10:00", "11:00", "confirmed", true, false, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, subject_id, timetable_id, date, start_time, end_time, status, attended, reminder_sent, attendance_reminder_sent FROM scheduled_classes WHERE user_id = $1 AND subject_id = $2 AND attended IS NOT NULL")).
		WithArgs("user-1", "subj-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM scheduled_classes WHERE user_id = $1 AND subject_id = $2 AND attended IS NOT NULL")).
		WithArgs("user-1", "subj-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	marked := true
	classes, total, err := repo.List(context.Background(), "user-1", models.ClassFilter{SubjectID: "subj-1", Marked: &marked})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.MarkAttended, classes[0].Mark())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUpdateAttendance(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_classes SET attended = $1 WHERE user_id = $2 AND id = $3")).
		WithArgs(true, "user-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	attended := true
	affected, err := repo.UpdateAttendance(context.Background(), "user-1", "class-1", &attended)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUpdateAttendanceClear(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_classes SET attended = $1")).
		WithArgs(nil, "user-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateAttendance(context.Background(), "user-1", "class-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryResetClass(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_classes SET status = 'scheduled', attended = NULL WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.ResetClass(context.Background(), "user-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryMarkHolidayOnlyScheduled(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_classes SET status = 'holiday' WHERE user_id = $1 AND date = $2 AND status = 'scheduled'")).
		WithArgs("user-1", "2026-01-05").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.MarkHolidayByDate(context.Background(), "user-1", "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryMarkReminderSentClaimsOnce(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_classes SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE")).
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_classes SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE")).
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.MarkReminderSent(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := repo.MarkReminderSent(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListReminderCandidates(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "subject_id", "timetable_id", "date", "start_time", "end_time",
		"status", "attended", "reminder_sent", "attendance_reminder_sent",
		"subject_name", "before_class_minutes", "after_class_minutes",
	}).AddRow("class-1", "user-1", "subj-1", "tt-1", "2026-01-05", "10:00", "11:00",
		"scheduled", nil, false, false, "Math", 15, 10)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN notification_settings n ON n.user_id = c.user_id AND n.enabled = TRUE")).
		WithArgs("2026-01-05").
		WillReturnRows(rows)

	candidates, err := repo.ListReminderCandidates(context.Background(), "2026-01-05")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Math", candidates[0].SubjectName)
	assert.Equal(t, 15, candidates[0].BeforeClassMinutes)
	assert.Nil(t, candidates[0].Attended)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryBulkInsertAssignsIDs(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_classes")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	classes := []models.ScheduledClass{
		{UserID: "user-1", SubjectID: "subj-1", TimetableID: "tt-1", Date: "2026-01-05", StartTime: "10:00", EndTime: "11:00", Status: models.StatusScheduled},
		{UserID: "user-1", SubjectID: "subj-1", TimetableID: "tt-1", Date: "2026-01-12", StartTime: "10:00", EndTime: "11:00", Status: models.StatusScheduled},
	}
	require.NoError(t, repo.BulkInsert(context.Background(), db, classes))
	assert.NotEmpty(t, classes[0].ID)
	assert.NotEmpty(t, classes[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryBulkInsertEmptyBatch(t *testing.T) {
	db, _ := newRepoMock(t)
	repo := NewClassRepository(db)

	require.NoError(t, repo.BulkInsert(context.Background(), db, nil))
}

func TestClassRepositoryDeleteByTimetable(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_classes WHERE user_id = $1 AND timetable_id = $2")).
		WithArgs("user-1", "tt-1").
		WillReturnResult(sqlmock.NewResult(0, 8))

	removed, err := repo.DeleteByTimetable(context.Background(), db, "user-1", "tt-1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
