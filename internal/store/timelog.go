package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clockit-hq/clockit/internal/model"
)

// ErrConflict is returned when a conditional update matched no row: the record
// was mutated concurrently between the caller's read and its write. Callers
// should re-fetch current state rather than resubmit the same update.
var ErrConflict = errors.New("time log was modified concurrently")

type TimeLogStore struct {
	db *sql.DB
}

func NewTimeLogStore(db *sql.DB) *TimeLogStore {
	return &TimeLogStore{db: db}
}

func scanTimeLog(scanner interface{ Scan(...any) error }) (*model.TimeLog, error) {
	var t model.TimeLog
	var clockOut, breakStart, breakEnd sql.NullTime
	var duration sql.NullInt64

	err := scanner.Scan(
		&t.ID, &t.UserID, &t.ClockIn, &clockOut, &breakStart, &breakEnd,
		&t.BreakDuration, &duration, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clockOut.Valid {
		t.ClockOut = &clockOut.Time
	}
	if breakStart.Valid {
		t.BreakStart = &breakStart.Time
	}
	if breakEnd.Valid {
		t.BreakEnd = &breakEnd.Time
	}
	if duration.Valid {
		d := int(duration.Int64)
		t.Duration = &d
	}
	return &t, nil
}

const timeLogCols = `id, user_id, clock_in, clock_out, break_start, break_end, break_duration, duration, status, created_at, updated_at`

func (s *TimeLogStore) GetByID(id int64) (*model.TimeLog, error) {
	row := s.db.QueryRow(`SELECT `+timeLogCols+` FROM time_logs WHERE id = ?`, id)
	t, err := scanTimeLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get time log: %w", err)
	}
	return t, nil
}

// FindOpen returns the user's open record (clock_out absent), or nil. The
// schema guarantees at most one exists.
func (s *TimeLogStore) FindOpen(userID int64) (*model.TimeLog, error) {
	row := s.db.QueryRow(
		`SELECT `+timeLogCols+` FROM time_logs WHERE user_id = ? AND clock_out IS NULL`,
		userID,
	)
	t, err := scanTimeLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open time log: %w", err)
	}
	return t, nil
}

// FindOpenInRange returns the open record whose clock_in falls inside
// [start, end), or nil.
func (s *TimeLogStore) FindOpenInRange(userID int64, start, end time.Time) (*model.TimeLog, error) {
	row := s.db.QueryRow(
		`SELECT `+timeLogCols+` FROM time_logs
		 WHERE user_id = ? AND clock_in >= ? AND clock_in < ? AND clock_out IS NULL`,
		userID, start.UTC(), end.UTC(),
	)
	t, err := scanTimeLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open time log in range: %w", err)
	}
	return t, nil
}

// FindLatestInRange returns the most recent record (open or completed) whose
// clock_in falls inside [start, end), or nil.
func (s *TimeLogStore) FindLatestInRange(userID int64, start, end time.Time) (*model.TimeLog, error) {
	row := s.db.QueryRow(
		`SELECT `+timeLogCols+` FROM time_logs
		 WHERE user_id = ? AND clock_in >= ? AND clock_in < ?
		 ORDER BY clock_in DESC LIMIT 1`,
		userID, start.UTC(), end.UTC(),
	)
	t, err := scanTimeLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest time log in range: %w", err)
	}
	return t, nil
}

// Create inserts a fresh open record. A concurrent clock-in for the same user
// trips the partial unique index and surfaces as ErrConflict.
func (s *TimeLogStore) Create(userID int64, clockIn time.Time) (*model.TimeLog, error) {
	result, err := s.db.Exec(
		`INSERT INTO time_logs (user_id, clock_in, status) VALUES (?, ?, ?)`,
		userID, clockIn.UTC(), model.TimeLogStatusActive,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert time log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// StartBreak opens a break on the record. The WHERE clause re-checks the
// precondition (open record, no break in progress) so the check and the
// mutation are a single atomic statement.
func (s *TimeLogStore) StartBreak(id int64, now time.Time) (*model.TimeLog, error) {
	result, err := s.db.Exec(
		`UPDATE time_logs
		 SET break_start = ?, break_end = NULL, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND clock_out IS NULL AND (break_start IS NULL OR break_end IS NOT NULL)`,
		now.UTC(), model.TimeLogStatusBreak, id,
	)
	if err != nil {
		return nil, fmt.Errorf("start break: %w", err)
	}
	return s.afterConditionalUpdate(result, id)
}

// EndBreak closes the open break, folding addedMinutes into break_duration.
// expectedBreakDuration guards against a concurrent mutation having already
// accrued break time since the caller's read.
func (s *TimeLogStore) EndBreak(id int64, expectedBreakDuration int, now time.Time, addedMinutes int) (*model.TimeLog, error) {
	result, err := s.db.Exec(
		`UPDATE time_logs
		 SET break_end = ?, break_duration = break_duration + ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND clock_out IS NULL
		   AND break_start IS NOT NULL AND break_end IS NULL
		   AND break_duration = ?`,
		now.UTC(), addedMinutes, model.TimeLogStatusActive, id, expectedBreakDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("end break: %w", err)
	}
	return s.afterConditionalUpdate(result, id)
}

// Complete closes the record: sets clock_out, the final work and break
// minutes, and force-closes an open break. The record becomes terminal; any
// later Complete on the same id matches no row.
func (s *TimeLogStore) Complete(id int64, expectedBreakDuration int, now time.Time, workMinutes, totalBreakMinutes int) (*model.TimeLog, error) {
	result, err := s.db.Exec(
		`UPDATE time_logs
		 SET clock_out = ?, duration = ?, break_duration = ?, status = ?,
		     break_end = CASE WHEN break_start IS NOT NULL AND break_end IS NULL THEN ? ELSE break_end END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND clock_out IS NULL AND break_duration = ?`,
		now.UTC(), workMinutes, totalBreakMinutes, model.TimeLogStatusCompleted,
		now.UTC(), id, expectedBreakDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("complete time log: %w", err)
	}
	return s.afterConditionalUpdate(result, id)
}

func (s *TimeLogStore) afterConditionalUpdate(result sql.Result, id int64) (*model.TimeLog, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrConflict
	}
	return s.GetByID(id)
}

func (s *TimeLogStore) ListByUserAndRange(userID int64, start, end time.Time) ([]model.TimeLog, error) {
	rows, err := s.db.Query(
		`SELECT `+timeLogCols+` FROM time_logs
		 WHERE user_id = ? AND clock_in >= ? AND clock_in < ?
		 ORDER BY clock_in ASC`,
		userID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs by user: %w", err)
	}
	defer rows.Close()
	return collectTimeLogs(rows)
}

func (s *TimeLogStore) ListByRange(start, end time.Time) ([]model.TimeLog, error) {
	rows, err := s.db.Query(
		`SELECT `+timeLogCols+` FROM time_logs
		 WHERE clock_in >= ? AND clock_in < ?
		 ORDER BY user_id ASC, clock_in ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list time logs by range: %w", err)
	}
	defer rows.Close()
	return collectTimeLogs(rows)
}

// ListOpen returns every currently open record across all users.
func (s *TimeLogStore) ListOpen() ([]model.TimeLog, error) {
	rows, err := s.db.Query(`
		SELECT ` + timeLogCols + ` FROM time_logs
		WHERE clock_out IS NULL
		ORDER BY clock_in`)
	if err != nil {
		return nil, fmt.Errorf("list open time logs: %w", err)
	}
	defer rows.Close()
	return collectTimeLogs(rows)
}

func collectTimeLogs(rows *sql.Rows) ([]model.TimeLog, error) {
	var logs []model.TimeLog
	for rows.Next() {
		t, err := scanTimeLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time log: %w", err)
		}
		logs = append(logs, *t)
	}
	return logs, rows.Err()
}
