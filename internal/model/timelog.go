package model

import "time"

const (
	TimeLogStatusActive    = "active"
	TimeLogStatusBreak     = "break"
	TimeLogStatusCompleted = "completed"
)

// TimeLog is one attendance record: one per user per calendar day while open,
// terminal once clock_out is set.
type TimeLog struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	ClockIn       time.Time  `json:"clock_in"`
	ClockOut      *time.Time `json:"clock_out"`
	BreakStart    *time.Time `json:"break_start"`
	BreakEnd      *time.Time `json:"break_end"`
	BreakDuration int        `json:"break_duration"`
	Duration      *int       `json:"duration"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Open reports whether the record is still open (the user is clocked in).
func (t *TimeLog) Open() bool {
	return t.ClockOut == nil
}

// OnBreak reports whether a break is currently in progress.
func (t *TimeLog) OnBreak() bool {
	return t.BreakStart != nil && t.BreakEnd == nil
}

type Task struct {
	ID          int64     `json:"id"`
	TimeLogID   int64     `json:"time_log_id"`
	UserID      int64     `json:"user_id"`
	ProjectID   *int64    `json:"project_id"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
