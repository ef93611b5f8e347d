package report

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/clockit-hq/clockit/internal/database"
	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
)

func setupReport(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := New(store.NewUserStore(db), store.NewTimeLogStore(db), store.NewTaskStore(db), time.UTC)
	return svc, db
}

func seedUser(t *testing.T, db *sql.DB, email, role, dept, empID string) *model.User {
	t.Helper()
	u, err := store.NewUserStore(db).Create(email, "hash", strings.Split(email, "@")[0], role, dept, "Staff", empID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedDay(t *testing.T, db *sql.DB, userID int64, clockIn, clockOut time.Time, workMinutes, breakMinutes int) *model.TimeLog {
	t.Helper()
	logs := store.NewTimeLogStore(db)
	rec, err := logs.Create(userID, clockIn)
	if err != nil {
		t.Fatalf("seed time log: %v", err)
	}
	rec, err = logs.Complete(rec.ID, 0, clockOut, workMinutes, breakMinutes)
	if err != nil {
		t.Fatalf("complete seeded log: %v", err)
	}
	return rec
}

func TestTimeTrackingTotals(t *testing.T) {
	svc, db := setupReport(t)
	alice := seedUser(t, db, "alice@example.com", model.RoleUser, "IT", "EMP001")
	bob := seedUser(t, db, "bob@example.com", model.RoleUser, "HR", "EMP002")

	day := func(d, h, m int) time.Time { return time.Date(2025, 3, d, h, m, 0, 0, time.UTC) }
	seedDay(t, db, alice.ID, day(10, 9, 0), day(10, 17, 0), 450, 30)
	seedDay(t, db, alice.ID, day(11, 9, 0), day(11, 13, 0), 240, 0)
	seedDay(t, db, bob.ID, day(10, 10, 0), day(10, 16, 0), 360, 0)

	now := day(12, 9, 0)
	rpt, err := svc.TimeTracking(day(10, 0, 0), day(12, 0, 0), now, false)
	if err != nil {
		t.Fatalf("time tracking: %v", err)
	}
	if len(rpt.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(rpt.Users))
	}

	byName := map[string]UserSummary{}
	for _, u := range rpt.Users {
		byName[u.Name] = u
	}
	// 450 + 240 minutes = 11.5 hours.
	if got := byName["alice"].TotalHours; got != 11.5 {
		t.Errorf("alice total hours = %v, want 11.5", got)
	}
	if got := byName["alice"].TotalBreakHours; got != 0.5 {
		t.Errorf("alice break hours = %v, want 0.5", got)
	}
	if got := byName["bob"].TotalHours; got != 6 {
		t.Errorf("bob total hours = %v, want 6", got)
	}
	if got := len(byName["alice"].TimeLogs); got != 2 {
		t.Errorf("alice logs = %d, want 2", got)
	}
}

func TestTimeTrackingExcludesAdmins(t *testing.T) {
	svc, db := setupReport(t)
	seedUser(t, db, "admin@example.com", model.RoleAdmin, "IT", "EMP001")
	seedUser(t, db, "user@example.com", model.RoleUser, "IT", "EMP002")

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	start, end := svc.ResolveRange(RangeWeek, now)

	rpt, err := svc.TimeTracking(start, end, now, false)
	if err != nil {
		t.Fatalf("time tracking: %v", err)
	}
	if len(rpt.Users) != 1 || rpt.Users[0].Name != "user" {
		t.Fatalf("users = %+v, want only the non-admin", rpt.Users)
	}

	rpt, _ = svc.TimeTracking(start, end, now, true)
	if len(rpt.Users) != 2 {
		t.Errorf("includeAdmins users = %d, want 2", len(rpt.Users))
	}
}

func TestTimeTrackingLiveAccrual(t *testing.T) {
	svc, db := setupReport(t)
	u := seedUser(t, db, "alice@example.com", model.RoleUser, "IT", "EMP001")

	logs := store.NewTimeLogStore(db)
	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if _, err := logs.Create(u.ID, clockIn); err != nil {
		t.Fatalf("create open log: %v", err)
	}

	// Three hours in, still clocked in: the report counts the elapsed time.
	now := clockIn.Add(3 * time.Hour)
	rpt, err := svc.TimeTracking(clockIn.Add(-time.Hour), now.Add(time.Hour), now, false)
	if err != nil {
		t.Fatalf("time tracking: %v", err)
	}
	if got := rpt.Users[0].TotalHours; got != 3 {
		t.Errorf("live total hours = %v, want 3", got)
	}
}

func TestResolveRange(t *testing.T) {
	svc, _ := setupReport(t)

	// 2025-03-12 is a Wednesday.
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	start, end := svc.ResolveRange(RangeDay, now)
	if start.Day() != 12 || end.Sub(start) != 24*time.Hour {
		t.Errorf("day range = [%v, %v)", start, end)
	}

	start, end = svc.ResolveRange(RangeWeek, now)
	if start.Weekday() != time.Sunday || start.Day() != 9 {
		t.Errorf("week start = %v, want Sunday the 9th", start)
	}
	if end.Sub(start) != 7*24*time.Hour {
		t.Errorf("week length = %v", end.Sub(start))
	}

	start, end = svc.ResolveRange(RangeMonth, now)
	if start.Day() != 1 || start.Month() != time.March || end.Month() != time.April {
		t.Errorf("month range = [%v, %v)", start, end)
	}
}

func TestDepartmentRollup(t *testing.T) {
	svc, db := setupReport(t)
	a := seedUser(t, db, "a@example.com", model.RoleUser, "IT", "EMP001")
	b := seedUser(t, db, "b@example.com", model.RoleUser, "IT", "EMP002")
	c := seedUser(t, db, "c@example.com", model.RoleUser, "HR", "EMP003")

	day := func(d, h int) time.Time { return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC) }
	seedDay(t, db, a.ID, day(10, 9), day(10, 17), 480, 0)
	seedDay(t, db, b.ID, day(10, 9), day(10, 13), 240, 0)
	seedDay(t, db, c.ID, day(10, 9), day(10, 12), 180, 0)

	depts, err := svc.Departments(day(10, 0), day(11, 0), day(11, 0))
	if err != nil {
		t.Fatalf("departments: %v", err)
	}
	byName := map[string]DepartmentSummary{}
	for _, d := range depts {
		byName[d.Department] = d
	}
	if got := byName["IT"]; got.UserCount != 2 || got.TotalHours != 12 {
		t.Errorf("IT = %+v, want 2 users / 12h", got)
	}
	if got := byName["HR"]; got.UserCount != 1 || got.TotalHours != 3 {
		t.Errorf("HR = %+v, want 1 user / 3h", got)
	}
}

func TestCalendarGroupsByDay(t *testing.T) {
	svc, db := setupReport(t)
	u := seedUser(t, db, "alice@example.com", model.RoleUser, "IT", "EMP001")

	day := func(d, h int) time.Time { return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC) }
	rec := seedDay(t, db, u.ID, day(10, 9), day(10, 17), 450, 30)
	seedDay(t, db, u.ID, day(11, 9), day(11, 13), 240, 0)

	tasks := store.NewTaskStore(db)
	tasks.Create(rec.ID, u.ID, nil, "reviews", 60)
	tasks.Create(rec.ID, u.ID, nil, "planning", 30)

	cal, err := svc.Calendar(u.ID, day(10, 0), day(15, 0))
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if len(cal.Summaries) != 2 {
		t.Fatalf("got %d days, want 2", len(cal.Summaries))
	}

	d10 := cal.Summaries["2025-03-10"]
	if d10.TotalWorkHours != 7.5 || d10.TotalBreakHours != 0.5 {
		t.Errorf("day 10 = %+v, want 7.5h work / 0.5h break", d10)
	}
	if d10.TaskCount != 2 {
		t.Errorf("day 10 tasks = %d, want 2", d10.TaskCount)
	}
	if d10.Status != model.TimeLogStatusCompleted {
		t.Errorf("day 10 status = %q", d10.Status)
	}
	if len(cal.TimeLogs["2025-03-11"]) != 1 {
		t.Errorf("day 11 logs = %d, want 1", len(cal.TimeLogs["2025-03-11"]))
	}
}

func TestRoundHours(t *testing.T) {
	cases := []struct {
		minutes int
		want    float64
	}{
		{0, 0},
		{30, 0.5},
		{450, 7.5},
		{100, 1.67},
		{95, 1.58},
	}
	for _, tc := range cases {
		if got := RoundHours(tc.minutes); got != tc.want {
			t.Errorf("RoundHours(%d) = %v, want %v", tc.minutes, got, tc.want)
		}
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	rpt := &TimeTrackingReport{
		Users: []UserSummary{
			{Name: "Alice", Email: "alice@example.com", Department: "IT", Position: "Dev", TotalHours: 11.5, TotalBreakHours: 0.5},
		},
	}
	var sb strings.Builder
	if err := WriteSummaryCSV(&sb, rpt); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "Name,Email,Department,Position,Total Hours,Total Break Hours\n") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "Alice,alice@example.com,IT,Dev,11.50,0.50") {
		t.Errorf("missing data row: %q", out)
	}
}

func TestWriteTimesheetCSV(t *testing.T) {
	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clockOut := clockIn.Add(8 * time.Hour)
	work := 450
	rpt := &TimeTrackingReport{
		Users: []UserSummary{
			{
				Name: "Alice",
				TimeLogs: []model.TimeLog{
					{ClockIn: clockIn, ClockOut: &clockOut, BreakDuration: 30, Duration: &work, Status: model.TimeLogStatusCompleted},
					{ClockIn: clockIn.Add(24 * time.Hour), Status: model.TimeLogStatusActive},
				},
			},
		},
	}
	var sb strings.Builder
	if err := WriteTimesheetCSV(&sb, rpt, time.UTC); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "Alice,2025-03-10,09:00,17:00,30,450,completed") {
		t.Errorf("missing completed row: %q", out)
	}
	// Open record has empty clock-out and work columns.
	if !strings.Contains(out, "Alice,2025-03-11,09:00,,0,,active") {
		t.Errorf("missing open row: %q", out)
	}
}
