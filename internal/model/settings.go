package model

import "time"

// WorkingHours is a user's expected daily schedule, used by reminder jobs and
// the profile page. Times are "HH:MM" in the user's timezone.
type WorkingHours struct {
	UserID        int64     `json:"user_id"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	BreakTime     int       `json:"break_time"`
	WorkDays      string    `json:"work_days"`
	MaxDailyHours int       `json:"max_daily_hours"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type NotificationSettings struct {
	UserID        int64     `json:"user_id"`
	EmailEnabled  bool      `json:"email_enabled"`
	PushEnabled   bool      `json:"push_enabled"`
	WeeklySummary bool      `json:"weekly_summary"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type EmergencyContact struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Relationship string    `json:"relationship"`
	UpdatedAt    time.Time `json:"updated_at"`
}
