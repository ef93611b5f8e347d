package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/store"
	"github.com/clockit-hq/clockit/internal/timeclock"
)

// UserHandler serves the admin user directory. Listings carry each user's
// live clock state so the admin dashboard shows who is in right now.
type UserHandler struct {
	userStore *store.UserStore
	engine    *timeclock.Engine
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, engine *timeclock.Engine, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, engine: engine, logger: logger}
}

type userWithStatus struct {
	model.User
	IsClockedIn      bool `json:"isClockedIn"`
	IsOnBreak        bool `json:"isOnBreak"`
	TodayWorkMinutes int  `json:"todayWorkMinutes"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	department := r.URL.Query().Get("department")

	users, err := h.userStore.List(role, department)
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	clockedInOnly := r.URL.Query().Get("clockedInToday") == "true"

	now := time.Now()
	out := make([]userWithStatus, 0, len(users))
	for _, u := range users {
		entry := userWithStatus{User: u}
		status, err := h.engine.StatusSnapshot(u.ID, now)
		if err != nil {
			h.logger.Error("status for user listing", "user_id", u.ID, "error", err)
		} else {
			entry.IsClockedIn = status.IsClockedIn
			entry.IsOnBreak = status.IsOnBreak
			entry.TodayWorkMinutes = status.WorkMinutes
		}
		if clockedInOnly && !entry.IsClockedIn {
			continue
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Position   string `json:"position"`
	EmployeeID string `json:"employee_id"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.Email == "" || req.Name == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "email, name and employee_id are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	switch req.Role {
	case model.RoleAdmin, model.RoleManager, model.RoleUser:
	case "":
		req.Role = model.RoleUser
	default:
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("check email", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "a user with that email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.userStore.Create(req.Email, string(hash), req.Name, req.Role, req.Department, req.Position, req.EmployeeID)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}
	switch req.Role {
	case model.RoleAdmin, model.RoleManager, model.RoleUser:
	default:
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	user, err := h.userStore.Update(id, req.Email, req.Name, req.Role, req.Department, req.Position)
	if err != nil {
		h.logger.Error("update user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if id == auth.UserID(r.Context()) {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	existing, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.userStore.Delete(id); err != nil {
		h.logger.Error("delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
