package models

// NotificationSettings is the per-user reminder configuration consumed by
// the reminder scanner.
type NotificationSettings struct {
	UserID             string `db:"user_id" json:"-"`
	Enabled            bool   `db:"enabled" json:"enabled"`
	BeforeClassMinutes int    `db:"before_class_minutes" json:"before_class_minutes"`
	AfterClassMinutes  int    `db:"after_class_minutes" json:"after_class_minutes"`
}

// DefaultNotificationSettings returns the settings applied before a user has
// saved any.
func DefaultNotificationSettings(userID string) NotificationSettings {
	return NotificationSettings{
		UserID:             userID,
		Enabled:            false,
		BeforeClassMinutes: 15,
		AfterClassMinutes:  10,
	}
}

// ReminderKind distinguishes the two reminder deliveries.
type ReminderKind string

const (
	ReminderPreClass       ReminderKind = "pre_class"
	ReminderPostAttendance ReminderKind = "post_attendance"
)

// Reminder is a single pending delivery produced by the reminder scan.
type Reminder struct {
	Kind      ReminderKind `json:"kind"`
	ClassID   string       `json:"class_id"`
	UserID    string       `json:"user_id"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	DedupeTag string       `json:"dedupe_tag"`
}

// ReminderCandidate is a scheduled class joined with the owner's reminder
// settings and the resolved subject name. Classes whose subject was deleted
// never appear as candidates.
type ReminderCandidate struct {
	ScheduledClass
	SubjectName        string `db:"subject_name"`
	BeforeClassMinutes int    `db:"before_class_minutes"`
	AfterClassMinutes  int    `db:"after_class_minutes"`
}

// UserProfile stores display preferences for a user.
type UserProfile struct {
	UserID   string `db:"user_id" json:"-"`
	UserName string `db:"user_name" json:"user_name"`
}
