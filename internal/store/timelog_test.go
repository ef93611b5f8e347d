package store

import (
	"errors"
	"testing"
	"time"
)

func TestTimeLogCreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, err := logs.Create(user.ID, clockIn)
	if err != nil {
		t.Fatalf("create time log: %v", err)
	}
	if !rec.ClockIn.Equal(clockIn) {
		t.Errorf("clock_in = %v, want %v", rec.ClockIn, clockIn)
	}

	open, err := logs.FindOpen(user.ID)
	if err != nil {
		t.Fatalf("find open: %v", err)
	}
	if open == nil || open.ID != rec.ID {
		t.Fatalf("find open = %+v, want record %d", open, rec.ID)
	}

	// No open record for another user.
	other := createTestUser(t, db, "b@example.com", "EMP002")
	open, err = logs.FindOpen(other.ID)
	if err != nil {
		t.Fatalf("find open for other user: %v", err)
	}
	if open != nil {
		t.Errorf("expected no open record, got %+v", open)
	}
}

func TestTimeLogSecondOpenInsertConflicts(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if _, err := logs.Create(user.ID, now); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := logs.Create(user.ID, now.Add(time.Minute))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second open insert error = %v, want ErrConflict", err)
	}
}

func TestTimeLogStartBreakConditions(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, _ := logs.Create(user.ID, now)

	breakStart := now.Add(3 * time.Hour)
	rec, err := logs.StartBreak(rec.ID, breakStart)
	if err != nil {
		t.Fatalf("start break: %v", err)
	}
	if rec.BreakStart == nil || !rec.BreakStart.Equal(breakStart) {
		t.Errorf("break_start = %v, want %v", rec.BreakStart, breakStart)
	}

	// A second start while the break is open matches no rows.
	_, err = logs.StartBreak(rec.ID, breakStart.Add(time.Minute))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("start break during break error = %v, want ErrConflict", err)
	}

	// After the break ends, a new one may start and the old end is cleared.
	rec, err = logs.EndBreak(rec.ID, 0, breakStart.Add(30*time.Minute), 30)
	if err != nil {
		t.Fatalf("end break: %v", err)
	}
	rec, err = logs.StartBreak(rec.ID, now.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("second break: %v", err)
	}
	if rec.BreakEnd != nil {
		t.Errorf("break_end = %v, want cleared for the new break", rec.BreakEnd)
	}
	if rec.BreakDuration != 30 {
		t.Errorf("break_duration = %d, want accrued 30", rec.BreakDuration)
	}
}

func TestTimeLogEndBreakGuardsExpectedState(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, _ := logs.Create(user.ID, now)
	rec, _ = logs.StartBreak(rec.ID, now.Add(time.Hour))

	// Wrong expected break duration loses.
	_, err := logs.EndBreak(rec.ID, 99, now.Add(90*time.Minute), 30)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale end break error = %v, want ErrConflict", err)
	}

	rec, err = logs.EndBreak(rec.ID, 0, now.Add(90*time.Minute), 30)
	if err != nil {
		t.Fatalf("end break: %v", err)
	}
	if rec.BreakDuration != 30 {
		t.Errorf("break_duration = %d, want 30", rec.BreakDuration)
	}

	// Ending again without an open break matches no rows.
	_, err = logs.EndBreak(rec.ID, 30, now.Add(2*time.Hour), 10)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("double end break error = %v, want ErrConflict", err)
	}
}

func TestTimeLogCompleteIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, _ := logs.Create(user.ID, now)

	clockOut := now.Add(8 * time.Hour)
	rec, err := logs.Complete(rec.ID, 0, clockOut, 480, 0)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.ClockOut == nil || !rec.ClockOut.Equal(clockOut) {
		t.Errorf("clock_out = %v, want %v", rec.ClockOut, clockOut)
	}
	if rec.Duration == nil || *rec.Duration != 480 {
		t.Errorf("duration = %v, want 480", rec.Duration)
	}

	_, err = logs.Complete(rec.ID, 0, clockOut.Add(time.Minute), 481, 0)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second complete error = %v, want ErrConflict", err)
	}
}

func TestTimeLogCompleteFoldsOpenBreak(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	logs := NewTimeLogStore(db)

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, _ := logs.Create(user.ID, now)
	logs.StartBreak(rec.ID, now.Add(3*time.Hour))

	clockOut := now.Add(3*time.Hour + 45*time.Minute)
	rec, err := logs.Complete(rec.ID, 0, clockOut, 180, 45)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.BreakEnd == nil || !rec.BreakEnd.Equal(clockOut) {
		t.Errorf("break_end = %v, want folded to clock_out %v", rec.BreakEnd, clockOut)
	}
	if rec.BreakDuration != 45 {
		t.Errorf("break_duration = %d, want 45", rec.BreakDuration)
	}
}

func TestTimeLogRangeQueries(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "a@example.com", "EMP001")
	other := createTestUser(t, db, "b@example.com", "EMP002")
	logs := NewTimeLogStore(db)

	day := func(d, h int) time.Time { return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC) }
	for d := 10; d <= 12; d++ {
		rec, err := logs.Create(user.ID, day(d, 9))
		if err != nil {
			t.Fatalf("create day %d: %v", d, err)
		}
		if _, err := logs.Complete(rec.ID, 0, day(d, 17), 480, 0); err != nil {
			t.Fatalf("complete day %d: %v", d, err)
		}
	}
	rec, _ := logs.Create(other.ID, day(11, 10))
	logs.Complete(rec.ID, 0, day(11, 16), 360, 0)

	got, err := logs.ListByUserAndRange(user.ID, day(10, 0), day(12, 0))
	if err != nil {
		t.Fatalf("list by user and range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	all, err := logs.ListByRange(day(11, 0), day(12, 0))
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d records across users, want 2", len(all))
	}

	latest, err := logs.FindLatestInRange(user.ID, day(10, 0), day(13, 0))
	if err != nil {
		t.Fatalf("find latest in range: %v", err)
	}
	if latest == nil || !latest.ClockIn.Equal(day(12, 9)) {
		t.Fatalf("latest = %+v, want the day-12 record", latest)
	}
}
