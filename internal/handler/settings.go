package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/store"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	logger        *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, logger: logger}
}

func (h *SettingsHandler) GetWorkingHours(w http.ResponseWriter, r *http.Request) {
	wh, err := h.settingsStore.GetWorkingHours(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get working hours", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load working hours")
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

type workingHoursRequest struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	BreakTime     int    `json:"break_time"`
	WorkDays      string `json:"work_days"`
	MaxDailyHours int    `json:"max_daily_hours"`
}

func (h *SettingsHandler) UpdateWorkingHours(w http.ResponseWriter, r *http.Request) {
	var req workingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !clockPattern.MatchString(req.StartTime) || !clockPattern.MatchString(req.EndTime) {
		writeError(w, http.StatusBadRequest, "start_time and end_time must be HH:MM")
		return
	}
	if req.BreakTime < 0 || req.MaxDailyHours < 1 || req.MaxDailyHours > 24 {
		writeError(w, http.StatusBadRequest, "invalid break or daily hour limits")
		return
	}

	wh, err := h.settingsStore.SetWorkingHours(
		auth.UserID(r.Context()),
		req.StartTime, req.EndTime, req.BreakTime,
		strings.ToUpper(strings.TrimSpace(req.WorkDays)), req.MaxDailyHours,
	)
	if err != nil {
		h.logger.Error("set working hours", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save working hours")
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (h *SettingsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.settingsStore.GetNotificationSettings(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get notification settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load notification settings")
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

type notificationsRequest struct {
	EmailEnabled  bool `json:"email_enabled"`
	PushEnabled   bool `json:"push_enabled"`
	WeeklySummary bool `json:"weekly_summary"`
}

func (h *SettingsHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	var req notificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ns, err := h.settingsStore.SetNotificationSettings(auth.UserID(r.Context()), req.EmailEnabled, req.PushEnabled, req.WeeklySummary)
	if err != nil {
		h.logger.Error("set notification settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save notification settings")
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (h *SettingsHandler) GetEmergencyContact(w http.ResponseWriter, r *http.Request) {
	ec, err := h.settingsStore.GetEmergencyContact(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get emergency contact", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load emergency contact")
		return
	}
	if ec == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, ec)
}

type emergencyContactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

func (h *SettingsHandler) UpdateEmergencyContact(w http.ResponseWriter, r *http.Request) {
	var req emergencyContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "name and phone are required")
		return
	}

	ec, err := h.settingsStore.SetEmergencyContact(auth.UserID(r.Context()), req.Name, req.Phone, req.Relationship)
	if err != nil {
		h.logger.Error("set emergency contact", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save emergency contact")
		return
	}
	writeJSON(w, http.StatusOK, ec)
}
