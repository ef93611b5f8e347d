// Package timeclock implements the attendance state machine: clock-in,
// clock-out, break accounting, and derived work-minute totals for one
// record at a time.
package timeclock

import (
	"errors"
	"fmt"
	"time"

	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
)

var (
	// ErrAlreadyClockedIn is returned when the user already has an open record.
	ErrAlreadyClockedIn = errors.New("already clocked in")
	// ErrNoActiveRecord is returned when an operation needs an open record and none exists.
	ErrNoActiveRecord = errors.New("no active time log")
	// ErrBreakInProgress is returned when starting a break while one is already open.
	ErrBreakInProgress = errors.New("break already in progress")
	// ErrNoBreakInProgress is returned when ending a break that was never started.
	ErrNoBreakInProgress = errors.New("no break in progress")
)

// Engine applies attendance transitions against the time log store. Every
// operation takes the caller's notion of now so handlers pass a single
// server-generated timestamp and tests pass fixed clocks; client-supplied
// times are never trusted.
//
// Preconditions are validated twice: once here against the fetched record,
// and again inside the store's conditional UPDATE, so two racing requests
// cannot both pass the check-then-mutate sequence. The loser of such a race
// sees store.ErrConflict.
type Engine struct {
	logs *store.TimeLogStore
	loc  *time.Location
}

func New(logs *store.TimeLogStore, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{logs: logs, loc: loc}
}

// Minutes returns whole elapsed minutes between start and end, floored.
// All break and work arithmetic goes through here so the two never round
// differently.
func Minutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour)
}

// DerivedStatus computes the status label purely from the record's
// timestamps. The persisted status column is a cache of this projection,
// rewritten whole on every mutation.
func DerivedStatus(t *model.TimeLog) string {
	switch {
	case t.ClockOut != nil:
		return model.TimeLogStatusCompleted
	case t.BreakStart != nil && t.BreakEnd == nil:
		return model.TimeLogStatusBreak
	default:
		return model.TimeLogStatusActive
	}
}

// ClockIn opens a new record for the user. Fails with ErrAlreadyClockedIn if
// any open record exists; the partial unique index on (user_id WHERE
// clock_out IS NULL) closes the race between two simultaneous clock-ins.
func (e *Engine) ClockIn(userID int64, now time.Time) (*model.TimeLog, error) {
	open, err := e.logs.FindOpen(userID)
	if err != nil {
		return nil, fmt.Errorf("clock in: %w", err)
	}
	if open != nil {
		return nil, ErrAlreadyClockedIn
	}

	rec, err := e.logs.Create(userID, now)
	if errors.Is(err, store.ErrConflict) {
		// Lost a clock-in race: the other request's record is the open one.
		return nil, ErrAlreadyClockedIn
	}
	if err != nil {
		return nil, fmt.Errorf("clock in: %w", err)
	}
	return rec, nil
}

// StartBreak begins a break on the user's open record. break_duration is not
// touched; it only accrues when the break ends.
func (e *Engine) StartBreak(userID int64, now time.Time) (*model.TimeLog, error) {
	rec, err := e.logs.FindOpen(userID)
	if err != nil {
		return nil, fmt.Errorf("start break: %w", err)
	}
	if rec == nil {
		return nil, ErrNoActiveRecord
	}
	if rec.OnBreak() {
		return nil, ErrBreakInProgress
	}

	updated, err := e.logs.StartBreak(rec.ID, now)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("start break: %w", err)
	}
	return updated, nil
}

// EndBreak closes the open break and folds its whole minutes into
// break_duration.
func (e *Engine) EndBreak(userID int64, now time.Time) (*model.TimeLog, error) {
	rec, err := e.logs.FindOpen(userID)
	if err != nil {
		return nil, fmt.Errorf("end break: %w", err)
	}
	if rec == nil {
		return nil, ErrNoActiveRecord
	}
	if !rec.OnBreak() {
		return nil, ErrNoBreakInProgress
	}

	elapsed := Minutes(*rec.BreakStart, now)
	updated, err := e.logs.EndBreak(rec.ID, rec.BreakDuration, now, elapsed)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("end break: %w", err)
	}
	return updated, nil
}

// ClockOut closes the open record. An in-progress break is force-closed and
// its minutes folded into the final break total. Work minutes are total
// elapsed minus breaks, clamped at zero so clock skew can never persist a
// negative duration. Once written, the record is terminal.
func (e *Engine) ClockOut(userID int64, now time.Time) (*model.TimeLog, error) {
	rec, err := e.logs.FindOpen(userID)
	if err != nil {
		return nil, fmt.Errorf("clock out: %w", err)
	}
	if rec == nil {
		return nil, ErrNoActiveRecord
	}

	totalElapsed := Minutes(rec.ClockIn, now)
	effectiveBreak := rec.BreakDuration
	if rec.OnBreak() {
		effectiveBreak += Minutes(*rec.BreakStart, now)
	}
	workMinutes := totalElapsed - effectiveBreak
	if workMinutes < 0 {
		workMinutes = 0
	}

	updated, err := e.logs.Complete(rec.ID, rec.BreakDuration, now, workMinutes, effectiveBreak)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("clock out: %w", err)
	}
	return updated, nil
}

// Status is a read-only snapshot of a user's day, with live durations
// computed against now. Nothing is persisted; polling dashboards call this
// freely.
type Status struct {
	IsClockedIn     bool           `json:"isClockedIn"`
	IsOnBreak       bool           `json:"isOnBreak"`
	HasTimeLogToday bool           `json:"hasTimeLogToday"`
	WorkMinutes     int            `json:"workMinutes"`
	BreakMinutes    int            `json:"breakMinutes"`
	TimeLog         *model.TimeLog `json:"timeLog,omitempty"`
}

// StatusSnapshot reports the user's current state for today's calendar day.
func (e *Engine) StatusSnapshot(userID int64, now time.Time) (*Status, error) {
	dayStart, dayEnd := DayBounds(now, e.loc)
	rec, err := e.logs.FindLatestInRange(userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("status snapshot: %w", err)
	}
	if rec == nil {
		return &Status{}, nil
	}

	st := &Status{
		IsClockedIn:     rec.Open(),
		IsOnBreak:       rec.OnBreak(),
		HasTimeLogToday: true,
		BreakMinutes:    rec.BreakDuration,
		TimeLog:         rec,
	}

	if rec.Open() {
		if rec.OnBreak() {
			st.BreakMinutes += Minutes(*rec.BreakStart, now)
		}
		st.WorkMinutes = Minutes(rec.ClockIn, now) - st.BreakMinutes
		if st.WorkMinutes < 0 {
			st.WorkMinutes = 0
		}
	} else if rec.Duration != nil {
		st.WorkMinutes = *rec.Duration
	}

	return st, nil
}

// History returns the user's records with clock-in inside [start, end),
// newest first.
func (e *Engine) History(userID int64, start, end time.Time) ([]model.TimeLog, error) {
	logs, err := e.logs.ListByUserAndRange(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	// ListByUserAndRange orders oldest first; the dashboard wants newest first.
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}

// FindOpen exposes the user's currently open record, if any.
func (e *Engine) FindOpen(userID int64) (*model.TimeLog, error) {
	return e.logs.FindOpen(userID)
}
