package models

import "time"

// SubjectColor is one of the eight colours a subject can be tagged with.
type SubjectColor string

const (
	ColorRed    SubjectColor = "red"
	ColorOrange SubjectColor = "orange"
	ColorYellow SubjectColor = "yellow"
	ColorGreen  SubjectColor = "green"
	ColorBlue   SubjectColor = "blue"
	ColorPurple SubjectColor = "purple"
	ColorPink   SubjectColor = "pink"
	ColorTeal   SubjectColor = "teal"
)

// Valid returns true when the colour is a supported value.
func (c SubjectColor) Valid() bool {
	switch c {
	case ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorPurple, ColorPink, ColorTeal:
		return true
	default:
		return false
	}
}

// Subject represents a class subject owned by a single user.
type Subject struct {
	ID        string       `db:"id" json:"id"`
	UserID    string       `db:"user_id" json:"-"`
	Name      string       `db:"name" json:"name"`
	Color     SubjectColor `db:"color" json:"color"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
