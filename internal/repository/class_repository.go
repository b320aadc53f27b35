package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/attendly/attendly-api/internal/models"
)

const classColumns = "id, user_id, subject_id, timetable_id, date, start_time, end_time, status, attended, reminder_sent, attendance_reminder_sent"

// ClassRepository handles persistence for scheduled class instances.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new repository instance.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns the user's scheduled classes matching the filter.
func (r *ClassRepository) List(ctx context.Context, userID string, filter models.ClassFilter) ([]models.ScheduledClass, int, error) {
	base := "FROM scheduled_classes WHERE user_id = $1"
	args := []interface{}{userID}

	appendCond := func(cond string, value interface{}) {
		base += fmt.Sprintf(" AND "+cond, len(args)+1)
		args = append(args, value)
	}

	if filter.SubjectID != "" {
		appendCond("subject_id = $%d", filter.SubjectID)
	}
	if filter.TimetableID != "" {
		appendCond("timetable_id = $%d", filter.TimetableID)
	}
	if filter.Date != "" {
		appendCond("date = $%d", filter.Date)
	}
	if filter.DateFrom != "" {
		appendCond("date >= $%d", filter.DateFrom)
	}
	if filter.DateTo != "" {
		appendCond("date <= $%d", filter.DateTo)
	}
	if filter.Status != nil {
		appendCond("status = $%d", string(*filter.Status))
	}
	if filter.Marked != nil {
		if *filter.Marked {
			base += " AND attended IS NOT NULL"
		} else {
			base += " AND attended IS NULL"
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, start_time ASC LIMIT %d OFFSET %d", classColumns, base, size, offset)
	var classes []models.ScheduledClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	return classes, total, nil
}

// FindByID returns a class owned by the user.
func (r *ClassRepository) FindByID(ctx context.Context, userID, id string) (*models.ScheduledClass, error) {
	query := fmt.Sprintf("SELECT %s FROM scheduled_classes WHERE user_id = $1 AND id = $2", classColumns)
	var class models.ScheduledClass
	if err := r.db.GetContext(ctx, &class, query, userID, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListMarked returns the user's classes with a recorded attendance mark,
// optionally restricted to one subject. Unmarked classes never qualify.
func (r *ClassRepository) ListMarked(ctx context.Context, userID, subjectID string) ([]models.ScheduledClass, error) {
	query := fmt.Sprintf("SELECT %s FROM scheduled_classes WHERE user_id = $1 AND attended IS NOT NULL", classColumns)
	args := []interface{}{userID}
	if subjectID != "" {
		query += " AND subject_id = $2"
		args = append(args, subjectID)
	}
	var classes []models.ScheduledClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list marked classes: %w", err)
	}
	return classes, nil
}

// ListByDate returns the user's classes on the given date ordered by start
// time.
func (r *ClassRepository) ListByDate(ctx context.Context, userID, date string) ([]models.ScheduledClass, error) {
	query := fmt.Sprintf("SELECT %s FROM scheduled_classes WHERE user_id = $1 AND date = $2 ORDER BY start_time ASC", classColumns)
	var classes []models.ScheduledClass
	if err := r.db.SelectContext(ctx, &classes, query, userID, date); err != nil {
		return nil, fmt.Errorf("list classes by date: %w", err)
	}
	return classes, nil
}

// BulkInsert writes a generated batch inside the caller's transaction.
func (r *ClassRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, classes []models.ScheduledClass) error {
	if len(classes) == 0 {
		return nil
	}
	for i := range classes {
		if classes[i].ID == "" {
			classes[i].ID = uuid.NewString()
		}
	}
	const query = `INSERT INTO scheduled_classes (id, user_id, subject_id, timetable_id, date, start_time, end_time, status, attended, reminder_sent, attendance_reminder_sent)
		VALUES (:id, :user_id, :subject_id, :timetable_id, :date, :start_time, :end_time, :status, :attended, :reminder_sent, :attendance_reminder_sent)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, classes); err != nil {
		return fmt.Errorf("bulk insert classes: %w", err)
	}
	return nil
}

// DeleteByTimetable removes every class generated from the given timetable.
// Classes belonging to other timetables are untouched.
func (r *ClassRepository) DeleteByTimetable(ctx context.Context, exec sqlx.ExtContext, userID, timetableID string) (int64, error) {
	res, err := exec.ExecContext(ctx, `DELETE FROM scheduled_classes WHERE user_id = $1 AND timetable_id = $2`, userID, timetableID)
	if err != nil {
		return 0, fmt.Errorf("delete classes by timetable: %w", err)
	}
	return res.RowsAffected()
}

// DeleteBySubject removes every class referencing the given subject.
func (r *ClassRepository) DeleteBySubject(ctx context.Context, exec sqlx.ExtContext, userID, subjectID string) (int64, error) {
	res, err := exec.ExecContext(ctx, `DELETE FROM scheduled_classes WHERE user_id = $1 AND subject_id = $2`, userID, subjectID)
	if err != nil {
		return 0, fmt.Errorf("delete classes by subject: %w", err)
	}
	return res.RowsAffected()
}

// UpdateStatus sets the lifecycle status unconditionally.
func (r *ClassRepository) UpdateStatus(ctx context.Context, userID, id string, status models.ClassStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_classes SET status = $1 WHERE user_id = $2 AND id = $3`, string(status), userID, id)
	if err != nil {
		return 0, fmt.Errorf("update class status: %w", err)
	}
	return res.RowsAffected()
}

// UpdateAttendance sets the attendance column; nil clears the mark. The
// status column is deliberately untouched.
func (r *ClassRepository) UpdateAttendance(ctx context.Context, userID, id string, attended *bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_classes SET attended = $1 WHERE user_id = $2 AND id = $3`, attended, userID, id)
	if err != nil {
		return 0, fmt.Errorf("update class attendance: %w", err)
	}
	return res.RowsAffected()
}

// ResetClass restores status to scheduled and clears attendance in one
// statement.
func (r *ClassRepository) ResetClass(ctx context.Context, userID, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_classes SET status = 'scheduled', attended = NULL WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return 0, fmt.Errorf("reset class: %w", err)
	}
	return res.RowsAffected()
}

// MarkHolidayByDate flips every still-scheduled class on the date to
// holiday. Confirmed and cancelled classes on the same date are left alone.
func (r *ClassRepository) MarkHolidayByDate(ctx context.Context, userID, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_classes SET status = 'holiday' WHERE user_id = $1 AND date = $2 AND status = 'scheduled'`, userID, date)
	if err != nil {
		return 0, fmt.Errorf("mark holiday: %w", err)
	}
	return res.RowsAffected()
}

// ListReminderCandidates returns, across all users with notifications
// enabled, the classes on the given date that may still owe a reminder. The
// inner join on subjects drops dangling references.
func (r *ClassRepository) ListReminderCandidates(ctx context.Context, date string) ([]models.ReminderCandidate, error) {
	query := fmt.Sprintf(`SELECT %s, s.name AS subject_name, n.before_class_minutes, n.after_class_minutes
		FROM scheduled_classes c
		JOIN subjects s ON s.id = c.subject_id
		JOIN notification_settings n ON n.user_id = c.user_id AND n.enabled = TRUE
		WHERE c.date = $1 AND c.status <> 'cancelled'
		  AND (c.reminder_sent = FALSE OR c.attendance_reminder_sent = FALSE)
		ORDER BY c.start_time ASC`, prefixColumns("c", classColumns))
	var candidates []models.ReminderCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, date); err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	return candidates, nil
}

// MarkReminderSent flips the pre-class flag, guarding against concurrent
// double delivery with the flag itself.
func (r *ClassRepository) MarkReminderSent(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_classes SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE`, id)
	if err != nil {
		return 0, fmt.Errorf("mark reminder sent: %w", err)
	}
	return res.RowsAffected()
}

// MarkAttendanceReminderSent flips the post-class flag at most once.
func (r *ClassRepository) MarkAttendanceReminderSent(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_classes SET attendance_reminder_sent = TRUE WHERE id = $1 AND attendance_reminder_sent = FALSE`, id)
	if err != nil {
		return 0, fmt.Errorf("mark attendance reminder sent: %w", err)
	}
	return res.RowsAffected()
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
