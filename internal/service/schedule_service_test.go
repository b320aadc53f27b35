package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	appErrors "github.com/attendly/attendly-api/pkg/errors"
)

// monday is 2026-01-05, a Monday.
var monday = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

func mondayTimetable() *models.Timetable {
	return &models.Timetable{
		ID:       "tt-1",
		UserID:   "user-1",
		Name:     "Semester 1",
		IsActive: true,
		Slots: []models.TimeSlot{
			{ID: "slot-1", TimetableID: "tt-1", SubjectID: "subj-1", DayOfWeek: 1, StartTime: "10:00", EndTime: "11:00"},
		},
	}
}

func TestExpandTimetableOneMonth(t *testing.T) {
	classes := ExpandTimetable(mondayTimetable(), 1, monday)

	// 2026-01-05 through 2026-02-04 inclusive holds five Mondays.
	require.Len(t, classes, 5)
	assert.Equal(t, "2026-01-05", classes[0].Date)
	assert.Equal(t, "2026-02-02", classes[4].Date)
	for _, class := range classes {
		assert.Equal(t, "user-1", class.UserID)
		assert.Equal(t, "subj-1", class.SubjectID)
		assert.Equal(t, "tt-1", class.TimetableID)
		assert.Equal(t, "10:00", class.StartTime)
		assert.Equal(t, models.StatusScheduled, class.Status)
		assert.Nil(t, class.Attended)
		assert.NotEmpty(t, class.ID)
	}
}

func TestExpandTimetableStartAfterWeekday(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	classes := ExpandTimetable(mondayTimetable(), 1, tuesday)

	// The first Monday is skipped, the horizon end 2026-02-05 is a Thursday.
	require.Len(t, classes, 4)
	assert.Equal(t, "2026-01-12", classes[0].Date)
}

func TestExpandTimetableZeroHorizonKeepsStartDate(t *testing.T) {
	classes := ExpandTimetable(mondayTimetable(), 0, monday)
	require.Len(t, classes, 1)
	assert.Equal(t, "2026-01-05", classes[0].Date)
}

func TestExpandTimetableNegativeHorizonClamps(t *testing.T) {
	classes := ExpandTimetable(mondayTimetable(), -3, monday)
	require.Len(t, classes, 1)
	assert.Equal(t, "2026-01-05", classes[0].Date)
}

func TestExpandTimetableEmpty(t *testing.T) {
	classes := ExpandTimetable(&models.Timetable{ID: "tt-1"}, 1, monday)
	assert.Empty(t, classes)

	classes = ExpandTimetable(nil, 1, monday)
	assert.Empty(t, classes)
}

func TestExpandTimetableMultipleSlotsPerDay(t *testing.T) {
	timetable := mondayTimetable()
	timetable.Slots = append(timetable.Slots, models.TimeSlot{
		ID: "slot-2", TimetableID: "tt-1", SubjectID: "subj-2", DayOfWeek: 1, StartTime: "13:00", EndTime: "14:00",
	})

	classes := ExpandTimetable(timetable, 0, monday)
	require.Len(t, classes, 2)
	assert.Equal(t, "subj-1", classes[0].SubjectID)
	assert.Equal(t, "subj-2", classes[1].SubjectID)
}

// --- Generate fixtures ---

type timetableReaderStub struct {
	active *models.Timetable
	err    error
}

func (s timetableReaderStub) FindActive(ctx context.Context, userID string) (*models.Timetable, error) {
	return s.active, s.err
}

func (s timetableReaderStub) FindByID(ctx context.Context, userID, id string) (*models.Timetable, error) {
	return s.active, s.err
}

type classWriterStub struct {
	replaced int64
	inserted []models.ScheduledClass
}

func (s *classWriterStub) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.ScheduledClass, int, error) {
	return nil, 0, nil
}

func (s *classWriterStub) DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, userID, timetableID string) (int64, error) {
	return s.replaced, nil
}

func (s *classWriterStub) BulkInsert(ctx context.Context, exec sqlx.ExtContext, classes []models.ScheduledClass) error {
	s.inserted = append(s.inserted, classes...)
	return nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) Invalidate(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type counterStub struct {
	generated int
}

func (s *counterStub) AddGeneratedClasses(n int) { s.generated += n }

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (m *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

func TestScheduleServiceGenerate(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	writer := &classWriterStub{replaced: 7}
	cache := &invalidatorStub{}
	counter := &counterStub{}
	svc := NewScheduleService(timetableReaderStub{active: mondayTimetable()}, writer, tx, cache, counter, nil, zap.NewNop())
	svc.now = func() time.Time { return monday.Add(9 * time.Hour) }

	resp, err := svc.Generate(context.Background(), "user-1", GenerateScheduleRequest{Months: 1})
	require.NoError(t, err)
	assert.Equal(t, "tt-1", resp.TimetableID)
	assert.Equal(t, 5, resp.Generated)
	assert.Equal(t, int64(7), resp.Replaced)
	assert.Equal(t, "2026-01-05", resp.From)
	assert.Equal(t, "2026-02-04", resp.To)
	assert.Len(t, writer.inserted, 5)
	assert.Equal(t, 5, counter.generated)
	assert.Equal(t, []string{"dashboard:user-1*"}, cache.patterns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleServiceGenerateNoActiveTimetable(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	svc := NewScheduleService(timetableReaderStub{err: sql.ErrNoRows}, &classWriterStub{}, tx, nil, nil, nil, zap.NewNop())

	_, err := svc.Generate(context.Background(), "user-1", GenerateScheduleRequest{Months: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGenerateMonthsOutOfRange(t *testing.T) {
	writer := &classWriterStub{}
	// The validator runs before any dependency is touched, so a reader that
	// would otherwise report a missing timetable proves nothing was loaded.
	svc := NewScheduleService(timetableReaderStub{err: sql.ErrNoRows}, writer, nil, nil, nil, nil, zap.NewNop())

	for _, months := range []int{0, 13, -1, 240} {
		_, err := svc.Generate(context.Background(), "user-1", GenerateScheduleRequest{Months: months})
		require.Error(t, err, "months=%d", months)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "months=%d", months)
	}
	assert.Empty(t, writer.inserted)
}

func TestScheduleServiceListClassesDefaultsPagination(t *testing.T) {
	svc := NewScheduleService(timetableReaderStub{}, &classWriterStub{}, nil, nil, nil, nil, zap.NewNop())

	_, page, err := svc.ListClasses(context.Background(), "user-1", models.ClassFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)
}
