package models

import "time"

// TimeSlot is a recurring weekly entry inside a timetable. Slots belong to
// exactly one timetable and are only addressable through it. Overlapping
// slots on the same day are not rejected.
type TimeSlot struct {
	ID          string `db:"id" json:"id"`
	TimetableID string `db:"timetable_id" json:"-"`
	SubjectID   string `db:"subject_id" json:"subject_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	Position    int    `db:"position" json:"-"`
}

// Timetable is a named weekly schedule. At most one timetable per user is
// active at a time; the active one feeds schedule generation.
type Timetable struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"-"`
	Name      string     `db:"name" json:"name"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Slots     []TimeSlot `db:"-" json:"slots"`
}

// SlotsForDay returns the timetable slots falling on the given weekday
// (0=Sunday..6=Saturday).
func (t *Timetable) SlotsForDay(dayOfWeek int) []TimeSlot {
	var matched []TimeSlot
	for _, slot := range t.Slots {
		if slot.DayOfWeek == dayOfWeek {
			matched = append(matched, slot)
		}
	}
	return matched
}
