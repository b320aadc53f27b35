package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
)

func reminderCandidate() models.ReminderCandidate {
	return models.ReminderCandidate{
		ScheduledClass: models.ScheduledClass{
			ID:        "class-1",
			UserID:    "user-1",
			SubjectID: "subj-1",
			Date:      "2026-01-05",
			StartTime: "10:00",
			EndTime:   "11:00",
			Status:    models.StatusScheduled,
		},
		SubjectName:        "Math",
		BeforeClassMinutes: 15,
		AfterClassMinutes:  10,
	}
}

func at(clock string) time.Time {
	parsed, _ := time.Parse("2006-01-02 15:04", "2026-01-05 "+clock)
	return parsed
}

func TestDueReminderPreClassWindow(t *testing.T) {
	svc := NewReminderService(nil, nil, nil, ReminderConfig{}, zap.NewNop())
	candidate := reminderCandidate()

	cases := []struct {
		clock string
		due   bool
	}{
		{"09:44", false},
		{"09:45", true},
		{"09:59", true},
		{"10:00", false},
	}
	for _, tc := range cases {
		reminder, ok := svc.dueReminder(&candidate, at(tc.clock))
		assert.Equal(t, tc.due, ok, tc.clock)
		if ok {
			assert.Equal(t, models.ReminderPreClass, reminder.Kind)
			assert.Equal(t, "reminder-class-1", reminder.DedupeTag)
		}
	}
}

func TestDueReminderPreClassAlreadySent(t *testing.T) {
	svc := NewReminderService(nil, nil, nil, ReminderConfig{}, zap.NewNop())
	candidate := reminderCandidate()
	candidate.ReminderSent = true

	_, ok := svc.dueReminder(&candidate, at("09:50"))
	assert.False(t, ok)
}

func TestDueReminderAttendanceWindow(t *testing.T) {
	svc := NewReminderService(nil, nil, nil, ReminderConfig{}, zap.NewNop())
	candidate := reminderCandidate()
	candidate.ReminderSent = true
	candidate.Status = models.StatusConfirmed

	// Due strictly after end plus the configured delay.
	_, ok := svc.dueReminder(&candidate, at("11:09"))
	assert.False(t, ok)
	_, ok = svc.dueReminder(&candidate, at("11:10"))
	assert.False(t, ok)

	reminder, ok := svc.dueReminder(&candidate, at("11:11"))
	require.True(t, ok)
	assert.Equal(t, models.ReminderPostAttendance, reminder.Kind)
	assert.Equal(t, "attendance-class-1", reminder.DedupeTag)

	// Stays open late into the evening while attendance is unmarked.
	_, ok = svc.dueReminder(&candidate, at("22:30"))
	assert.True(t, ok)
}

func TestDueReminderAttendanceSkipsMarked(t *testing.T) {
	svc := NewReminderService(nil, nil, nil, ReminderConfig{}, zap.NewNop())
	candidate := reminderCandidate()
	candidate.ReminderSent = true
	candidate.Status = models.StatusConfirmed
	candidate.Attended = boolPtr(true)

	_, ok := svc.dueReminder(&candidate, at("11:30"))
	assert.False(t, ok)
}

func TestDueReminderAttendanceAlreadySent(t *testing.T) {
	svc := NewReminderService(nil, nil, nil, ReminderConfig{}, zap.NewNop())
	candidate := reminderCandidate()
	candidate.ReminderSent = true
	candidate.Status = models.StatusConfirmed
	candidate.AttendanceReminderSent = true

	_, ok := svc.dueReminder(&candidate, at("11:30"))
	assert.False(t, ok)
}

func TestDueReminderAttendanceRequiresConfirmed(t *testing.T) {
	svc := NewReminderService(nil, nil, nil, ReminderConfig{}, zap.NewNop())
	candidate := reminderCandidate()
	candidate.ReminderSent = true

	// Classes never confirmed get no attendance prompt.
	_, ok := svc.dueReminder(&candidate, at("11:30"))
	assert.False(t, ok)
}

// --- Scan fixtures ---

type reminderRepoStub struct {
	candidates       []models.ReminderCandidate
	lastDate         string
	preClaims        int64
	attendanceClaims int64
	preCalls         int
	attendanceCalls  int
}

func (s *reminderRepoStub) ListReminderCandidates(ctx context.Context, date string) ([]models.ReminderCandidate, error) {
	s.lastDate = date
	return s.candidates, nil
}

func (s *reminderRepoStub) MarkReminderSent(ctx context.Context, id string) (int64, error) {
	s.preCalls++
	return s.preClaims, nil
}

func (s *reminderRepoStub) MarkAttendanceReminderSent(ctx context.Context, id string) (int64, error) {
	s.attendanceCalls++
	return s.attendanceClaims, nil
}

type captureNotifier struct {
	delivered chan models.Reminder
}

func (n *captureNotifier) Deliver(ctx context.Context, reminder models.Reminder) error {
	n.delivered <- reminder
	return nil
}

func awaitReminder(t *testing.T, ch chan models.Reminder) models.Reminder {
	t.Helper()
	select {
	case reminder := <-ch:
		return reminder
	case <-time.After(2 * time.Second):
		t.Fatal("no reminder delivered")
		return models.Reminder{}
	}
}

func TestReminderServiceScanEnqueuesDueReminder(t *testing.T) {
	repo := &reminderRepoStub{candidates: []models.ReminderCandidate{reminderCandidate()}, preClaims: 1}
	notifier := &captureNotifier{delivered: make(chan models.Reminder, 1)}
	svc := NewReminderService(repo, notifier, nil, ReminderConfig{QueueWorkers: 1}, zap.NewNop())
	svc.now = func() time.Time { return at("09:50") }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.queue.Start(ctx)
	defer svc.queue.Stop()

	sent, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "2026-01-05", repo.lastDate)
	assert.Equal(t, 1, repo.preCalls)

	reminder := awaitReminder(t, notifier.delivered)
	assert.Equal(t, models.ReminderPreClass, reminder.Kind)
	assert.Equal(t, "class-1", reminder.ClassID)
}

func TestReminderServiceScanLostClaimSendsNothing(t *testing.T) {
	repo := &reminderRepoStub{candidates: []models.ReminderCandidate{reminderCandidate()}, preClaims: 0}
	notifier := &captureNotifier{delivered: make(chan models.Reminder, 1)}
	svc := NewReminderService(repo, notifier, nil, ReminderConfig{QueueWorkers: 1}, zap.NewNop())
	svc.now = func() time.Time { return at("09:50") }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.queue.Start(ctx)
	defer svc.queue.Stop()

	sent, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, repo.preCalls)
	assert.Empty(t, notifier.delivered)
}

func TestReminderServiceScanOutsideWindows(t *testing.T) {
	repo := &reminderRepoStub{candidates: []models.ReminderCandidate{reminderCandidate()}, preClaims: 1, attendanceClaims: 1}
	notifier := &captureNotifier{delivered: make(chan models.Reminder, 1)}
	svc := NewReminderService(repo, notifier, nil, ReminderConfig{QueueWorkers: 1}, zap.NewNop())
	svc.now = func() time.Time { return at("08:00") }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.queue.Start(ctx)
	defer svc.queue.Stop()

	sent, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, repo.preCalls)
	assert.Equal(t, 0, repo.attendanceCalls)
}
