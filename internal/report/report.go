// Package report aggregates time log data into per-user and per-day
// summaries for the reporting endpoints and exports.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
	"github.com/clockit-hq/clockit/internal/timeclock"
)

type Service struct {
	users *store.UserStore
	logs  *store.TimeLogStore
	tasks *store.TaskStore
	loc   *time.Location
}

func New(users *store.UserStore, logs *store.TimeLogStore, tasks *store.TaskStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{users: users, logs: logs, tasks: tasks, loc: loc}
}

// Range names accepted by ResolveRange.
const (
	RangeDay   = "day"
	RangeWeek  = "week"
	RangeMonth = "month"
)

// ResolveRange turns a named range into a half-open [start, end) window
// around now. Weeks start on Sunday, matching the dashboard's calendar.
func (s *Service) ResolveRange(name string, now time.Time) (time.Time, time.Time) {
	local := now.In(s.loc)
	switch name {
	case RangeWeek:
		dayStart, _ := timeclock.DayBounds(local, s.loc)
		start := dayStart.AddDate(0, 0, -int(local.Weekday()))
		return start, start.AddDate(0, 0, 7)
	case RangeMonth:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
		return start, start.AddDate(0, 1, 0)
	default: // day
		return timeclock.DayBounds(local, s.loc)
	}
}

// MonthBounds is the [start, end) window of the month containing t.
func (s *Service) MonthBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(s.loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 1, 0)
}

// UserSummary is one user's aggregate over a report window.
type UserSummary struct {
	UserID          int64           `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Department      string          `json:"department"`
	Position        string          `json:"position"`
	TotalHours      float64         `json:"totalHours"`
	TotalBreakHours float64         `json:"totalBreakHours"`
	TimeLogs        []model.TimeLog `json:"timeLogs"`
}

type TimeTrackingReport struct {
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
	Users []UserSummary `json:"users"`
}

// TimeTracking builds per-user totals over [start, end). Open records accrue
// live against now; completed records use their stored net duration.
func (s *Service) TimeTracking(start, end, now time.Time, includeAdmins bool) (*TimeTrackingReport, error) {
	users, err := s.users.List("", "")
	if err != nil {
		return nil, fmt.Errorf("list users for report: %w", err)
	}

	rpt := &TimeTrackingReport{Start: start, End: end}
	for _, u := range users {
		if !includeAdmins && u.Role == model.RoleAdmin {
			continue
		}
		logs, err := s.logs.ListByUserAndRange(u.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("list logs for user %d: %w", u.ID, err)
		}

		var workMinutes, breakMinutes int
		for i := range logs {
			w, b := NetMinutes(&logs[i], now)
			workMinutes += w
			breakMinutes += b
		}

		rpt.Users = append(rpt.Users, UserSummary{
			UserID:          u.ID,
			Name:            u.Name,
			Email:           u.Email,
			Department:      u.Department,
			Position:        u.Position,
			TotalHours:      RoundHours(workMinutes),
			TotalBreakHours: RoundHours(breakMinutes),
			TimeLogs:        logs,
		})
	}
	return rpt, nil
}

// DepartmentSummary rolls user totals up by department.
type DepartmentSummary struct {
	Department      string  `json:"department"`
	UserCount       int     `json:"userCount"`
	TotalHours      float64 `json:"totalHours"`
	TotalBreakHours float64 `json:"totalBreakHours"`
}

func (s *Service) Departments(start, end, now time.Time) ([]DepartmentSummary, error) {
	rpt, err := s.TimeTracking(start, end, now, true)
	if err != nil {
		return nil, err
	}

	byDept := make(map[string]*DepartmentSummary)
	var order []string
	for _, u := range rpt.Users {
		d, ok := byDept[u.Department]
		if !ok {
			d = &DepartmentSummary{Department: u.Department}
			byDept[u.Department] = d
			order = append(order, u.Department)
		}
		d.UserCount++
		d.TotalHours = round2(d.TotalHours + u.TotalHours)
		d.TotalBreakHours = round2(d.TotalBreakHours + u.TotalBreakHours)
	}

	out := make([]DepartmentSummary, 0, len(order))
	for _, name := range order {
		out = append(out, *byDept[name])
	}
	return out, nil
}

// DaySummary is one calendar day's aggregate for a single user.
type DaySummary struct {
	Date            string  `json:"date"`
	TotalWorkHours  float64 `json:"totalWorkHours"`
	TotalBreakHours float64 `json:"totalBreakHours"`
	TaskCount       int     `json:"taskCount"`
	Status          string  `json:"status"`
}

type CalendarMonth struct {
	Start     time.Time                  `json:"start"`
	End       time.Time                  `json:"end"`
	TimeLogs  map[string][]model.TimeLog `json:"timeLogs"`
	Summaries map[string]DaySummary      `json:"dailySummaries"`
}

// Calendar groups a user's month of records by local calendar date.
func (s *Service) Calendar(userID int64, month, now time.Time) (*CalendarMonth, error) {
	start, end := s.MonthBounds(month)
	logs, err := s.logs.ListByUserAndRange(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list logs for calendar: %w", err)
	}

	cal := &CalendarMonth{
		Start:     start,
		End:       end,
		TimeLogs:  make(map[string][]model.TimeLog),
		Summaries: make(map[string]DaySummary),
	}
	for i := range logs {
		log := logs[i]
		date := log.ClockIn.In(s.loc).Format("2006-01-02")
		cal.TimeLogs[date] = append(cal.TimeLogs[date], log)

		taskCount := 0
		if tasks, err := s.tasks.ListByTimeLog(log.ID); err == nil {
			taskCount = len(tasks)
		}

		w, b := NetMinutes(&log, now)
		day := cal.Summaries[date]
		day.Date = date
		day.TotalWorkHours = round2(day.TotalWorkHours + RoundHours(w))
		day.TotalBreakHours = round2(day.TotalBreakHours + RoundHours(b))
		day.TaskCount += taskCount
		day.Status = log.Status
		cal.Summaries[date] = day
	}
	return cal, nil
}

// CalendarDay is one calendar day's full detail for a single user.
type CalendarDay struct {
	Date     string          `json:"date"`
	TimeLogs []model.TimeLog `json:"timeLogs"`
	Tasks    []*model.Task   `json:"tasks"`
	Summary  DaySummary      `json:"summary"`
}

// Day collects a user's records, tasks, and totals for one local date.
func (s *Service) Day(userID int64, date, now time.Time) (*CalendarDay, error) {
	start, end := timeclock.DayBounds(date.In(s.loc), s.loc)
	logs, err := s.logs.ListByUserAndRange(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list logs for day: %w", err)
	}

	day := &CalendarDay{
		Date:     start.Format("2006-01-02"),
		TimeLogs: logs,
		Tasks:    []*model.Task{},
	}
	day.Summary.Date = day.Date
	var workMinutes, breakMinutes int
	for i := range logs {
		w, b := NetMinutes(&logs[i], now)
		workMinutes += w
		breakMinutes += b
		day.Summary.Status = logs[i].Status

		tasks, err := s.tasks.ListByTimeLog(logs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list tasks for day: %w", err)
		}
		day.Tasks = append(day.Tasks, tasks...)
	}
	day.Summary.TotalWorkHours = RoundHours(workMinutes)
	day.Summary.TotalBreakHours = RoundHours(breakMinutes)
	day.Summary.TaskCount = len(day.Tasks)
	return day, nil
}

// NetMinutes returns a record's net work and break minutes. For open records
// the work side accrues against now and an in-progress break counts toward
// the break side.
func NetMinutes(log *model.TimeLog, now time.Time) (work, brk int) {
	brk = log.BreakDuration
	if log.Open() {
		if log.OnBreak() {
			brk += timeclock.Minutes(*log.BreakStart, now)
		}
		work = timeclock.Minutes(log.ClockIn, now) - brk
	} else {
		if log.Duration != nil {
			work = *log.Duration
		}
	}
	if work < 0 {
		work = 0
	}
	return work, brk
}

// RoundHours converts minutes to hours rounded to two decimals.
func RoundHours(minutes int) float64 {
	return round2(float64(minutes) / 60)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
