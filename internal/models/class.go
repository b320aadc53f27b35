package models

import "encoding/json"

// ClassStatus tracks the lifecycle of a scheduled class instance.
type ClassStatus string

const (
	StatusScheduled   ClassStatus = "scheduled"
	StatusConfirmed   ClassStatus = "confirmed"
	StatusCancelled   ClassStatus = "cancelled"
	StatusRescheduled ClassStatus = "rescheduled"
	StatusHoliday     ClassStatus = "holiday"
)

// Valid returns true when the status is a supported value.
func (s ClassStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusRescheduled, StatusHoliday:
		return true
	default:
		return false
	}
}

// AttendanceMark is the tri-state attendance flag. Unmarked is an explicit
// state, not an absence of data: unmarked classes never count toward stats.
type AttendanceMark string

const (
	MarkUnmarked AttendanceMark = "unmarked"
	MarkAttended AttendanceMark = "attended"
	MarkMissed   AttendanceMark = "missed"
)

// MarkFromBool maps a nullable stored boolean onto the tri-state mark.
func MarkFromBool(attended *bool) AttendanceMark {
	switch {
	case attended == nil:
		return MarkUnmarked
	case *attended:
		return MarkAttended
	default:
		return MarkMissed
	}
}

// Bool returns the nullable boolean column representation of the mark.
func (m AttendanceMark) Bool() *bool {
	switch m {
	case MarkAttended:
		v := true
		return &v
	case MarkMissed:
		v := false
		return &v
	default:
		return nil
	}
}

// ScheduledClass is one dated instance expanded from a timetable slot.
// Subject and timetable ids are weak references: the referenced row may have
// been deleted, and lookups must treat that as "not found" rather than fail.
type ScheduledClass struct {
	ID                     string      `db:"id" json:"id"`
	UserID                 string      `db:"user_id" json:"-"`
	SubjectID              string      `db:"subject_id" json:"subject_id"`
	TimetableID            string      `db:"timetable_id" json:"timetable_id"`
	Date                   string      `db:"date" json:"date"`
	StartTime              string      `db:"start_time" json:"start_time"`
	EndTime                string      `db:"end_time" json:"end_time"`
	Status                 ClassStatus `db:"status" json:"status"`
	Attended               *bool       `db:"attended" json:"-"`
	ReminderSent           bool        `db:"reminder_sent" json:"reminder_sent"`
	AttendanceReminderSent bool        `db:"attendance_reminder_sent" json:"attendance_reminder_sent"`
}

// Mark exposes the attendance column as the tri-state mark.
func (c *ScheduledClass) Mark() AttendanceMark {
	return MarkFromBool(c.Attended)
}

// MarshalJSON renders the nullable attendance column as the tri-state
// attendance field.
func (c ScheduledClass) MarshalJSON() ([]byte, error) {
	type alias ScheduledClass
	return json.Marshal(struct {
		alias
		Attendance AttendanceMark `json:"attendance"`
	}{alias(c), c.Mark()})
}

// UnmarshalJSON restores the attendance column from the tri-state field so
// cached copies round-trip losslessly.
func (c *ScheduledClass) UnmarshalJSON(data []byte) error {
	type alias ScheduledClass
	aux := struct {
		*alias
		Attendance AttendanceMark `json:"attendance"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Attended = aux.Attendance.Bool()
	return nil
}

// ClassFilter scopes scheduled-class listing queries.
type ClassFilter struct {
	SubjectID   string
	TimetableID string
	Date        string
	DateFrom    string
	DateTo      string
	Status      *ClassStatus
	Marked      *bool
	Page        int
	PageSize    int
}

// AttendanceStats is derived from marked classes on demand. It is never
// persisted and never a source of truth.
type AttendanceStats struct {
	TotalClasses    int `json:"total_classes"`
	AttendedClasses int `json:"attended_classes"`
	MissedClasses   int `json:"missed_classes"`
	Percentage      int `json:"percentage"`
}
