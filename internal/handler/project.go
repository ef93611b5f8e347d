package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
)

type ProjectHandler struct {
	projectStore *store.ProjectStore
	logger       *slog.Logger
}

func NewProjectHandler(ps *store.ProjectStore, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projectStore: ps, logger: logger}
}

type projectRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Budget      float64    `json:"budget"`
	Tags        string     `json:"tags"`
	MemberIDs   []int64    `json:"member_ids"`
}

func (req *projectRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	switch req.Status {
	case "", "active", "on-hold", "completed", "archived":
	default:
		return "invalid status"
	}
	switch req.Priority {
	case "", "low", "medium", "high":
	default:
		return "invalid priority"
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return "end_date must not precede start_date"
	}
	if req.Status == "" {
		req.Status = "active"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	return ""
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ownerID := auth.UserID(r.Context())
	project, err := h.projectStore.Create(req.Title, req.Description, req.Status, req.Priority, req.StartDate, req.EndDate, req.Budget, req.Tags, &ownerID)
	if err != nil {
		h.logger.Error("create project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	if len(req.MemberIDs) > 0 {
		if err := h.projectStore.SetMembers(project.ID, req.MemberIDs); err != nil {
			h.logger.Error("set project members", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to set project members")
			return
		}
		project, _ = h.projectStore.GetByID(project.ID)
	}
	writeJSON(w, http.StatusCreated, project)
}

// List returns all projects for managers and the caller's projects otherwise.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		projects []*model.Project
		err      error
	)
	if auth.IsManager(r.Context()) {
		projects, err = h.projectStore.List(r.URL.Query().Get("status"))
	} else {
		projects, err = h.projectStore.ListByMember(auth.UserID(r.Context()))
	}
	if err != nil {
		h.logger.Error("list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}
	project, err := h.projectStore.GetByID(id)
	if err != nil {
		h.logger.Error("get project", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	project, err := h.projectStore.Update(id, req.Title, req.Description, req.Status, req.Priority, req.StartDate, req.EndDate, req.Budget, req.Tags)
	if err != nil {
		h.logger.Error("update project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update project")
		return
	}
	if req.MemberIDs != nil {
		if err := h.projectStore.SetMembers(id, req.MemberIDs); err != nil {
			h.logger.Error("set project members", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to set project members")
			return
		}
		project, _ = h.projectStore.GetByID(id)
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	existing, err := h.projectStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	if err := h.projectStore.Delete(id); err != nil {
		h.logger.Error("delete project", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
