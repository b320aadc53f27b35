package models

// DashboardSummary is the aggregated payload behind the dashboard endpoint.
// It is assembled on demand and cached briefly, never stored.
type DashboardSummary struct {
	UserName        string           `json:"user_name"`
	Date            string           `json:"date"`
	TodayClasses    []ScheduledClass `json:"today_classes"`
	UpcomingClasses []ScheduledClass `json:"upcoming_classes"`
	Stats           AttendanceStats  `json:"stats"`
}
