package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteSummaryCSV writes one row per user with their window totals.
func WriteSummaryCSV(w io.Writer, rpt *TimeTrackingReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Email", "Department", "Position", "Total Hours", "Total Break Hours"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, u := range rpt.Users {
		row := []string{
			u.Name,
			u.Email,
			u.Department,
			u.Position,
			strconv.FormatFloat(u.TotalHours, 'f', 2, 64),
			strconv.FormatFloat(u.TotalBreakHours, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTimesheetCSV writes one row per time log across all users in the
// report, ordered as the report carries them.
func WriteTimesheetCSV(w io.Writer, rpt *TimeTrackingReport, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Employee", "Date", "Clock In", "Clock Out", "Break Minutes", "Work Minutes", "Status"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, u := range rpt.Users {
		for i := range u.TimeLogs {
			log := u.TimeLogs[i]
			clockOut := ""
			if log.ClockOut != nil {
				clockOut = log.ClockOut.In(loc).Format("15:04")
			}
			work := ""
			if log.Duration != nil {
				work = strconv.Itoa(*log.Duration)
			}
			row := []string{
				u.Name,
				log.ClockIn.In(loc).Format("2006-01-02"),
				log.ClockIn.In(loc).Format("15:04"),
				clockOut,
				strconv.Itoa(log.BreakDuration),
				work,
				log.Status,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename builds the attachment name for a report download.
func ExportFilename(kind string, start, end time.Time) string {
	return fmt.Sprintf("%s-report-%s-%s.csv", kind, start.Format("2006-01-02"), end.Format("2006-01-02"))
}
