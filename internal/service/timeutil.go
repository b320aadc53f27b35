package service

import "time"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// startOfDay truncates a moment to local midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// formatDate renders the calendar-date key used on scheduled classes.
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// combineDateTime resolves a date key and an HH:MM wall-clock string into a
// moment in the given location. A malformed time string yields ok=false.
func combineDateTime(date, clock string, loc *time.Location) (time.Time, bool) {
	parsed, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// dayOfWeek extracts the 0=Sunday..6=Saturday index.
func dayOfWeek(t time.Time) int {
	return int(t.Weekday())
}
