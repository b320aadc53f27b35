package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/attendly/attendly-api/internal/models"
	"github.com/attendly/attendly-api/pkg/jobs"
)

type reminderClassRepository interface {
	ListReminderCandidates(ctx context.Context, date string) ([]models.ReminderCandidate, error)
	MarkReminderSent(ctx context.Context, id string) (int64, error)
	MarkAttendanceReminderSent(ctx context.Context, id string) (int64, error)
}

type reminderMetrics interface {
	ReminderSent(kind string)
	ReminderFailed(kind string)
}

// ReminderConfig tunes the scanner and its delivery queue.
type ReminderConfig struct {
	ScanInterval time.Duration
	QueueWorkers int
	QueueRetries int
}

// ReminderService periodically scans today's classes and emits two kinds of
// reminder: one shortly before a class starts, and one after a confirmed
// class ends while attendance is still unmarked. Each class gets each reminder at most
// once; the sent flags are persisted before delivery is enqueued, so a scan
// that races a restart drops a reminder rather than duplicating it.
type ReminderService struct {
	classes  reminderClassRepository
	notifier Notifier
	metrics  reminderMetrics
	logger   *zap.Logger

	interval time.Duration
	queue    *jobs.Queue
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewReminderService creates the reminder scanner. metrics may be nil.
func NewReminderService(classes reminderClassRepository, notifier Notifier, metrics reminderMetrics, cfg ReminderConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = time.Minute
	}

	s := &ReminderService{
		classes:  classes,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		interval: cfg.ScanInterval,
		now:      time.Now,
	}
	s.queue = jobs.NewQueue("reminders", s.deliver, jobs.QueueConfig{
		Workers:    cfg.QueueWorkers,
		MaxRetries: cfg.QueueRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery queue and the scan loop. The first scan runs
// immediately so reminders are not delayed by a full interval after boot.
func (s *ReminderService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	scanCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	s.queue.Start(ctx)
	go s.loop(scanCtx)
	s.logger.Info("reminder scanner started", zap.Duration("interval", s.interval))
}

// Stop halts the scan loop and drains the delivery queue.
func (s *ReminderService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.started = false
	s.mu.Unlock()

	<-done
	s.queue.Stop()
	s.logger.Info("reminder scanner stopped")
}

func (s *ReminderService) loop(ctx context.Context) {
	defer close(s.done)

	s.runScan(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

func (s *ReminderService) runScan(ctx context.Context) {
	sent, err := s.Scan(ctx)
	if err != nil {
		s.logger.Error("reminder scan failed", zap.Error(err))
		return
	}
	if sent > 0 {
		s.logger.Info("reminder scan completed", zap.Int("enqueued", sent))
	}
}

// Scan runs one pass over today's classes across all users and enqueues every
// reminder whose window is open. It returns the number of reminders enqueued.
func (s *ReminderService) Scan(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.classes.ListReminderCandidates(ctx, formatDate(now))
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	sent := 0
	for i := range candidates {
		c := &candidates[i]
		if r, ok := s.dueReminder(c, now); ok {
			if s.claimAndEnqueue(ctx, c, r) {
				sent++
			}
		}
	}
	return sent, nil
}

// dueReminder decides which reminder, if any, the class is due for at the
// given instant. The pre-class window opens before_class_minutes before the
// start and closes at the start. The attendance window opens strictly after
// end plus after_class_minutes for a confirmed, unmarked class and stays
// open until midnight.
func (s *ReminderService) dueReminder(c *models.ReminderCandidate, now time.Time) (models.Reminder, bool) {
	loc := now.Location()
	start, ok := combineDateTime(c.Date, c.StartTime, loc)
	if !ok {
		return models.Reminder{}, false
	}
	end, ok := combineDateTime(c.Date, c.EndTime, loc)
	if !ok {
		return models.Reminder{}, false
	}

	if !c.ReminderSent {
		opens := start.Add(-time.Duration(c.BeforeClassMinutes) * time.Minute)
		if !now.Before(opens) && now.Before(start) {
			return models.Reminder{
				Kind:      models.ReminderPreClass,
				ClassID:   c.ID,
				UserID:    c.UserID,
				Title:     "Class Reminder",
				Body:      fmt.Sprintf("%s starts at %s", c.SubjectName, c.StartTime),
				DedupeTag: "reminder-" + c.ID,
			}, true
		}
	}
	if c.Status == models.StatusConfirmed && !c.AttendanceReminderSent && c.Attended == nil {
		opens := end.Add(time.Duration(c.AfterClassMinutes) * time.Minute)
		if now.After(opens) {
			return models.Reminder{
				Kind:      models.ReminderPostAttendance,
				ClassID:   c.ID,
				UserID:    c.UserID,
				Title:     "Mark Your Attendance",
				Body:      fmt.Sprintf("Did you attend %s?", c.SubjectName),
				DedupeTag: "attendance-" + c.ID,
			}, true
		}
	}
	return models.Reminder{}, false
}

// claimAndEnqueue persists the sent flag and, only when this scan won the
// claim, hands the reminder to the delivery queue.
func (s *ReminderService) claimAndEnqueue(ctx context.Context, c *models.ReminderCandidate, r models.Reminder) bool {
	var (
		claimed int64
		err     error
	)
	switch r.Kind {
	case models.ReminderPreClass:
		claimed, err = s.classes.MarkReminderSent(ctx, c.ID)
	case models.ReminderPostAttendance:
		claimed, err = s.classes.MarkAttendanceReminderSent(ctx, c.ID)
	}
	if err != nil {
		s.logger.Error("failed to claim reminder", zap.String("class_id", c.ID), zap.Error(err))
		return false
	}
	if claimed == 0 {
		return false
	}

	if err := s.queue.Enqueue(jobs.Job{ID: r.DedupeTag, Type: string(r.Kind), Payload: r}); err != nil {
		s.logger.Error("failed to enqueue reminder", zap.String("class_id", c.ID), zap.Error(err))
		if s.metrics != nil {
			s.metrics.ReminderFailed(string(r.Kind))
		}
		return false
	}
	return true
}

func (s *ReminderService) deliver(ctx context.Context, job jobs.Job) error {
	reminder, ok := job.Payload.(models.Reminder)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	if err := s.notifier.Deliver(ctx, reminder); err != nil {
		if s.metrics != nil {
			s.metrics.ReminderFailed(string(reminder.Kind))
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.ReminderSent(string(reminder.Kind))
	}
	return nil
}
