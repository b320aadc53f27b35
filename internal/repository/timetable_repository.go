package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/attendly/attendly-api/internal/models"
)

// TimetableRepository handles persistence for timetables and their embedded
// slots. Slots live in a child table but are only reachable through their
// timetable, mirroring the ownership model.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new repository instance.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByUser returns all timetables for the user with slots attached.
func (r *TimetableRepository) ListByUser(ctx context.Context, userID string) ([]models.Timetable, error) {
	const query = `SELECT id, user_id, name, is_active, created_at FROM timetables WHERE user_id = $1 ORDER BY created_at ASC`
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, userID); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	for i := range timetables {
		slots, err := r.loadSlots(ctx, timetables[i].ID)
		if err != nil {
			return nil, err
		}
		timetables[i].Slots = slots
	}
	return timetables, nil
}

// FindByID returns a timetable owned by the user, slots included.
func (r *TimetableRepository) FindByID(ctx context.Context, userID, id string) (*models.Timetable, error) {
	const query = `SELECT id, user_id, name, is_active, created_at FROM timetables WHERE user_id = $1 AND id = $2`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, userID, id); err != nil {
		return nil, err
	}
	slots, err := r.loadSlots(ctx, timetable.ID)
	if err != nil {
		return nil, err
	}
	timetable.Slots = slots
	return &timetable, nil
}

// FindActive returns the user's active timetable, or sql.ErrNoRows when none
// is active.
func (r *TimetableRepository) FindActive(ctx context.Context, userID string) (*models.Timetable, error) {
	const query = `SELECT id, user_id, name, is_active, created_at FROM timetables WHERE user_id = $1 AND is_active = TRUE LIMIT 1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, userID); err != nil {
		return nil, err
	}
	slots, err := r.loadSlots(ctx, timetable.ID)
	if err != nil {
		return nil, err
	}
	timetable.Slots = slots
	return &timetable, nil
}

// CountByUser returns how many timetables the user owns.
func (r *TimetableRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM timetables WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count timetables: %w", err)
	}
	return count, nil
}

// Create persists a new timetable.
func (r *TimetableRepository) Create(ctx context.Context, timetable *models.Timetable) error {
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO timetables (id, user_id, name, is_active, created_at) VALUES (:id, :user_id, :name, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, timetable); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// SetActiveExclusive marks the given timetable active and every other
// timetable of the user inactive, preserving the single-active invariant.
func (r *TimetableRepository) SetActiveExclusive(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error) {
	if _, err := exec.ExecContext(ctx, `UPDATE timetables SET is_active = FALSE WHERE user_id = $1 AND id <> $2`, userID, id); err != nil {
		return 0, fmt.Errorf("deactivate timetables: %w", err)
	}
	res, err := exec.ExecContext(ctx, `UPDATE timetables SET is_active = TRUE WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return 0, fmt.Errorf("activate timetable: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a timetable and its slots inside the caller's transaction.
func (r *TimetableRepository) Delete(ctx context.Context, exec sqlx.ExtContext, userID, id string) (int64, error) {
	if _, err := exec.ExecContext(ctx, `DELETE FROM time_slots WHERE timetable_id = $1`, id); err != nil {
		return 0, fmt.Errorf("delete timetable slots: %w", err)
	}
	res, err := exec.ExecContext(ctx, `DELETE FROM timetables WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return 0, fmt.Errorf("delete timetable: %w", err)
	}
	return res.RowsAffected()
}

// PromoteAny makes an arbitrary remaining timetable active when the user has
// none active. Returns sql.ErrNoRows semantics via a zero count.
func (r *TimetableRepository) PromoteAny(ctx context.Context, exec sqlx.ExtContext, userID string) (int64, error) {
	const query = `UPDATE timetables SET is_active = TRUE WHERE id = (
		SELECT id FROM timetables WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1
	) AND NOT EXISTS (SELECT 1 FROM timetables WHERE user_id = $1 AND is_active = TRUE)`
	res, err := exec.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("promote timetable: %w", err)
	}
	return res.RowsAffected()
}

// AddSlot appends a slot to the timetable.
func (r *TimetableRepository) AddSlot(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	const query = `INSERT INTO time_slots (id, timetable_id, subject_id, day_of_week, start_time, end_time, position)
		VALUES (:id, :timetable_id, :subject_id, :day_of_week, :start_time, :end_time,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM time_slots WHERE timetable_id = :timetable_id))`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("add time slot: %w", err)
	}
	return nil
}

// RemoveSlot deletes a single slot from the timetable.
func (r *TimetableRepository) RemoveSlot(ctx context.Context, timetableID, slotID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE timetable_id = $1 AND id = $2`, timetableID, slotID)
	if err != nil {
		return 0, fmt.Errorf("remove time slot: %w", err)
	}
	return res.RowsAffected()
}

// RemoveSlotsBySubject strips a deleted subject out of every timetable the
// user owns.
func (r *TimetableRepository) RemoveSlotsBySubject(ctx context.Context, exec sqlx.ExtContext, userID, subjectID string) (int64, error) {
	const query = `DELETE FROM time_slots WHERE subject_id = $1 AND timetable_id IN (SELECT id FROM timetables WHERE user_id = $2)`
	res, err := exec.ExecContext(ctx, query, subjectID, userID)
	if err != nil {
		return 0, fmt.Errorf("remove slots by subject: %w", err)
	}
	return res.RowsAffected()
}

func (r *TimetableRepository) loadSlots(ctx context.Context, timetableID string) ([]models.TimeSlot, error) {
	const query = `SELECT id, timetable_id, subject_id, day_of_week, start_time, end_time, position FROM time_slots WHERE timetable_id = $1 ORDER BY position ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load time slots: %w", err)
	}
	return slots, nil
}
