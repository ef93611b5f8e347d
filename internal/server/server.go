package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/clockit-hq/clockit/internal/auth"
	"github.com/clockit-hq/clockit/internal/docstore"
	"github.com/clockit-hq/clockit/internal/email"
	"github.com/clockit-hq/clockit/internal/handler"
	"github.com/clockit-hq/clockit/internal/middleware"
	"github.com/clockit-hq/clockit/internal/push"
	"github.com/clockit-hq/clockit/internal/report"
	"github.com/clockit-hq/clockit/internal/store"
	"github.com/clockit-hq/clockit/internal/timeclock"
	ws "github.com/clockit-hq/clockit/internal/websocket"
)

// Config carries everything the server needs beyond the database handle.
type Config struct {
	BaseURL         string
	Location        *time.Location
	Storage         docstore.Config
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string
	PostmarkToken   string
	EmailFrom       string
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	timeClockH    *handler.TimeClockHandler
	taskH         *handler.TaskHandler
	projectH      *handler.ProjectHandler
	profileH      *handler.ProfileHandler
	settingsH     *handler.SettingsHandler
	reportH       *handler.ReportHandler
	documentH     *handler.DocumentHandler
	userH         *handler.UserHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	pushStore     *store.PushStore
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	timeLogStore := store.NewTimeLogStore(db)
	taskStore := store.NewTaskStore(db)
	projectStore := store.NewProjectStore(db)
	documentStore := store.NewDocumentStore(db)
	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)

	engine := timeclock.New(timeLogStore, loc)
	reports := report.New(userStore, timeLogStore, taskStore, loc)
	storage := docstore.New(cfg.Storage)

	var mailer *email.Client
	if cfg.PostmarkToken != "" {
		mailer = email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.BaseURL)
	}

	pushLogger := logger.With("component", "push")
	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber)
	pushSched := push.NewScheduler(pushSvc, mailer, pushStore, timeLogStore, userStore, settingsStore, loc)

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		timeClockH:    handler.NewTimeClockHandler(engine, userStore, hub, logger.With("component", "timeclock")),
		taskH:         handler.NewTaskHandler(taskStore, projectStore, engine, logger.With("component", "task")),
		projectH:      handler.NewProjectHandler(projectStore, logger.With("component", "project")),
		profileH:      handler.NewProfileHandler(userStore, settingsStore, logger.With("component", "profile")),
		settingsH:     handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		reportH:       handler.NewReportHandler(reports, loc, logger.With("component", "report")),
		documentH:     handler.NewDocumentHandler(documentStore, storage, logger.With("component", "document")),
		userH:         handler.NewUserHandler(userStore, engine, logger.With("component", "user")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, pushLogger),
		sessionStore:  sessionStore,
		userStore:     userStore,
		pushStore:     pushStore,
		rateLimiter:   middleware.NewRateLimiter(),
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the notification scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /login", s.loginRateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// loginRateLimited throttles login attempts per client IP.
func (s *Server) loginRateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, func(r *http.Request) string {
		return middleware.RealIP(r)
	}, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

// clockRateLimited throttles time clock mutations per user.
func (s *Server) clockRateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, func(r *http.Request) string {
		return "clock:" + strconv.FormatInt(auth.UserID(r.Context()), 10)
	}, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Time clock
	mux.HandleFunc("POST /api/time/clock-in", s.clockRateLimited(s.timeClockH.ClockIn))
	mux.HandleFunc("POST /api/time/clock-out", s.clockRateLimited(s.timeClockH.ClockOut))
	mux.HandleFunc("POST /api/time/break", s.clockRateLimited(s.timeClockH.Break))
	mux.HandleFunc("GET /api/time/status", s.timeClockH.Status)
	mux.HandleFunc("GET /api/time/history", s.timeClockH.History)

	// Tasks
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Projects: members list and view their own; management is admin-side.
	mux.HandleFunc("GET /api/projects", s.projectH.List)
	mux.HandleFunc("GET /api/projects/{id}", s.projectH.Get)

	// Profile
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Update)
	mux.HandleFunc("PUT /api/profile/password", s.profileH.ChangePassword)

	// Settings
	mux.HandleFunc("GET /api/settings/working-hours", s.settingsH.GetWorkingHours)
	mux.HandleFunc("PUT /api/settings/working-hours", s.settingsH.UpdateWorkingHours)
	mux.HandleFunc("GET /api/settings/notifications", s.settingsH.GetNotifications)
	mux.HandleFunc("PUT /api/settings/notifications", s.settingsH.UpdateNotifications)
	mux.HandleFunc("GET /api/settings/emergency-contact", s.settingsH.GetEmergencyContact)
	mux.HandleFunc("PUT /api/settings/emergency-contact", s.settingsH.UpdateEmergencyContact)

	// Documents
	mux.HandleFunc("POST /api/documents", s.documentH.Upload)
	mux.HandleFunc("GET /api/documents", s.documentH.List)
	mux.HandleFunc("GET /api/documents/{id}/download", s.documentH.Download)
	mux.HandleFunc("DELETE /api/documents/{id}", s.documentH.Delete)

	// Reports (managers and admins)
	mux.Handle("GET /api/reports/time-tracking", middleware.RequireManager(http.HandlerFunc(s.reportH.TimeTracking)))
	mux.Handle("GET /api/reports/time-tracking/export/csv", middleware.RequireManager(http.HandlerFunc(s.reportH.Export)))
	mux.Handle("GET /api/reports/departments", middleware.RequireManager(http.HandlerFunc(s.reportH.Departments)))
	mux.HandleFunc("GET /api/calendar", s.reportH.Calendar)
	mux.HandleFunc("GET /api/calendar/{date}", s.reportH.CalendarDay)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)

	// User administration
	mux.Handle("GET /api/admin/users", middleware.RequireAdmin(http.HandlerFunc(s.userH.List)))
	mux.Handle("POST /api/admin/users", middleware.RequireAdmin(http.HandlerFunc(s.userH.Create)))
	mux.Handle("PUT /api/admin/users/{id}", middleware.RequireAdmin(http.HandlerFunc(s.userH.Update)))
	mux.Handle("DELETE /api/admin/users/{id}", middleware.RequireAdmin(http.HandlerFunc(s.userH.Delete)))

	// Project administration
	mux.Handle("GET /api/admin/projects", middleware.RequireAdmin(http.HandlerFunc(s.projectH.List)))
	mux.Handle("POST /api/admin/projects", middleware.RequireAdmin(http.HandlerFunc(s.projectH.Create)))
	mux.Handle("GET /api/admin/projects/{id}", middleware.RequireAdmin(http.HandlerFunc(s.projectH.Get)))
	mux.Handle("PUT /api/admin/projects/{id}", middleware.RequireAdmin(http.HandlerFunc(s.projectH.Update)))
	mux.Handle("DELETE /api/admin/projects/{id}", middleware.RequireAdmin(http.HandlerFunc(s.projectH.Delete)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
