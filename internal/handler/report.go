package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/report"
)

type ReportHandler struct {
	reports *report.Service
	loc     *time.Location
	logger  *slog.Logger
}

func NewReportHandler(rs *report.Service, loc *time.Location, logger *slog.Logger) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{reports: rs, loc: loc, logger: logger}
}

func (h *ReportHandler) resolveWindow(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")
	if startStr != "" && endStr != "" {
		start, err := time.ParseInLocation("2006-01-02", startStr, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate, expected YYYY-MM-DD")
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate, expected YYYY-MM-DD")
		}
		return start, end.AddDate(0, 0, 1), nil
	}

	timeRange := r.URL.Query().Get("timeRange")
	if timeRange == "" {
		timeRange = report.RangeWeek
	}
	start, end := h.reports.ResolveRange(timeRange, time.Now())
	return start, end, nil
}

// TimeTracking serves the per-user totals the reports page renders.
func (h *ReportHandler) TimeTracking(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.resolveWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	includeAdmins := r.URL.Query().Get("includeAdmins") == "true"

	rpt, err := h.reports.TimeTracking(start, end, time.Now(), includeAdmins)
	if err != nil {
		h.logger.Error("time tracking report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rpt.Users,
		"dateRange": map[string]time.Time{
			"start": rpt.Start,
			"end":   rpt.End,
		},
	})
}

// Departments serves per-department rollups for the admin dashboard.
func (h *ReportHandler) Departments(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.resolveWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	depts, err := h.reports.Departments(start, end, time.Now())
	if err != nil {
		h.logger.Error("department report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, depts)
}

// Export streams a CSV download. kind selects the layout: "summary" is one
// row per user, "timesheet" one row per time log.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.resolveWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "summary"
	}
	if kind != "summary" && kind != "timesheet" {
		writeError(w, http.StatusBadRequest, "type must be summary or timesheet")
		return
	}

	rpt, err := h.reports.TimeTracking(start, end, time.Now(), r.URL.Query().Get("includeAdmins") == "true")
	if err != nil {
		h.logger.Error("export report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.ExportFilename(kind, start, end)))

	if kind == "timesheet" {
		err = report.WriteTimesheetCSV(w, rpt, h.loc)
	} else {
		err = report.WriteSummaryCSV(w, rpt)
	}
	if err != nil {
		h.logger.Error("write export", "error", err)
	}
}

// Calendar serves a month of the caller's records grouped by day. Admins may
// pass userId to view someone else's month.
func (h *ReportHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if idStr := r.URL.Query().Get("userId"); idStr != "" && auth.IsAdmin(r.Context()) {
		if _, err := fmt.Sscan(idStr, &userID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid userId")
			return
		}
	}

	month := time.Now()
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		parsed, err := time.ParseInLocation("2006-01", monthStr, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
			return
		}
		month = parsed
	}

	cal, err := h.reports.Calendar(userID, month, time.Now())
	if err != nil {
		h.logger.Error("calendar", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    cal,
	})
}

// CalendarDay serves one day's records, tasks, and totals.
func (h *ReportHandler) CalendarDay(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if idStr := r.URL.Query().Get("userId"); idStr != "" && auth.IsAdmin(r.Context()) {
		if _, err := fmt.Sscan(idStr, &userID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid userId")
			return
		}
	}

	date, err := time.ParseInLocation("2006-01-02", r.PathValue("date"), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	day, err := h.reports.Day(userID, date, time.Now())
	if err != nil {
		h.logger.Error("calendar day", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build day summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    day,
	})
}
