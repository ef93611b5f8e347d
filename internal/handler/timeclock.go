package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
	"github.com/clockit-hq/clockit/internal/timeclock"
	"github.com/clockit-hq/clockit/internal/websocket"
)

// TimeClockHandler exposes the clock-in/out and break endpoints. Every
// mutation broadcasts a presence event so open dashboards update live.
type TimeClockHandler struct {
	engine    *timeclock.Engine
	userStore *store.UserStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewTimeClockHandler(engine *timeclock.Engine, us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *TimeClockHandler {
	return &TimeClockHandler{engine: engine, userStore: us, hub: hub, logger: logger}
}

func (h *TimeClockHandler) broadcast(eventType string, userID int64, at time.Time) {
	if h.hub == nil {
		return
	}
	name := ""
	if user, err := h.userStore.GetByID(userID); err == nil && user != nil {
		name = user.Name
	}
	h.hub.Broadcast(websocket.NewPresence(eventType, userID, name, at))
}

func (h *TimeClockHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now()

	rec, err := h.engine.ClockIn(userID, now)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.broadcast(websocket.EventClockIn, userID, now)
	writeJSON(w, http.StatusCreated, rec)
}

// Break starts or ends a break depending on the action in the body.
func (h *TimeClockHandler) Break(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now()

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var (
		rec   *model.TimeLog
		event string
		err   error
	)
	switch req.Action {
	case "start":
		rec, err = h.engine.StartBreak(userID, now)
		event = websocket.EventBreakStart
	case "end":
		rec, err = h.engine.EndBreak(userID, now)
		event = websocket.EventBreakEnd
	default:
		writeError(w, http.StatusBadRequest, `action must be "start" or "end"`)
		return
	}
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.broadcast(event, userID, now)
	writeJSON(w, http.StatusOK, rec)
}

func (h *TimeClockHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now()

	rec, err := h.engine.ClockOut(userID, now)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.broadcast(websocket.EventClockOut, userID, now)
	writeJSON(w, http.StatusOK, rec)
}

func (h *TimeClockHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	status, err := h.engine.StatusSnapshot(userID, time.Now())
	if err != nil {
		h.logger.Error("status snapshot", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// History returns the caller's records for a date range, newest day first.
func (h *TimeClockHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	start, end, err := parseDateRange(r, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := h.engine.History(userID, start, end)
	if err != nil {
		h.logger.Error("list history", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if logs == nil {
		logs = []model.TimeLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *TimeClockHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeclock.ErrAlreadyClockedIn):
		writeError(w, http.StatusConflict, "already clocked in")
	case errors.Is(err, timeclock.ErrNoActiveRecord):
		writeError(w, http.StatusConflict, "not clocked in")
	case errors.Is(err, timeclock.ErrBreakInProgress):
		writeError(w, http.StatusConflict, "break already in progress")
	case errors.Is(err, timeclock.ErrNoBreakInProgress):
		writeError(w, http.StatusConflict, "no break in progress")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "record changed, please retry")
	default:
		h.logger.Error("time clock operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseDateRange reads optional startDate/endDate query params (YYYY-MM-DD)
// and falls back to the trailing defaultDays window ending now.
func parseDateRange(r *http.Request, defaultDays int) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")

	now := time.Now()
	if startStr == "" && endStr == "" {
		return now.AddDate(0, 0, -defaultDays), now, nil
	}

	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid startDate, expected YYYY-MM-DD")
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid endDate, expected YYYY-MM-DD")
	}
	// endDate is inclusive.
	return start, end.AddDate(0, 0, 1), nil
}
