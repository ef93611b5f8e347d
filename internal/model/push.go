package model

import "time"

const (
	NotifTypeClockOutReminder = "clock_out_reminder"
	NotifTypeWeeklySummary    = "weekly_summary"
)

type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"-"`
	AuthKey   string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
