package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
	"github.com/clockit-hq/clockit/internal/timeclock"
)

type TaskHandler struct {
	taskStore    *store.TaskStore
	projectStore *store.ProjectStore
	engine       *timeclock.Engine
	logger       *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, ps *store.ProjectStore, engine *timeclock.Engine, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, projectStore: ps, engine: engine, logger: logger}
}

type taskRequest struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	ProjectID   *int64 `json:"project_id"`
}

// Create attaches a task to the caller's open time log. Logging work requires
// being clocked in.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Duration < 0 {
		writeError(w, http.StatusBadRequest, "duration must not be negative")
		return
	}

	rec, err := h.engine.FindOpen(userID)
	if err != nil {
		h.logger.Error("find open record for task", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusBadRequest, "no active time log found, please clock in first")
		return
	}

	if req.ProjectID != nil {
		project, err := h.projectStore.GetByID(*req.ProjectID)
		if err != nil {
			h.logger.Error("check project for task", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if project == nil {
			writeError(w, http.StatusBadRequest, "project not found")
			return
		}
	}

	task, err := h.taskStore.Create(rec.ID, userID, req.ProjectID, req.Description, req.Duration)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// List returns the caller's tasks, optionally scoped to one time log.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var (
		tasks []*model.Task
		err   error
	)
	if idStr := r.URL.Query().Get("timeLogId"); idStr != "" {
		id, perr := strconv.ParseInt(idStr, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid timeLogId")
			return
		}
		tasks, err = h.taskStore.ListByTimeLog(id)
	} else {
		tasks, err = h.taskStore.ListByUser(userID, 100)
	}
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	// Scope check: callers only see their own tasks.
	out := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	task, err := h.taskStore.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if task == nil || task.UserID != userID {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	task, err = h.taskStore.Update(id, req.ProjectID, req.Description, req.Duration)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.taskStore.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if task == nil || task.UserID != userID {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.taskStore.Delete(id); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
