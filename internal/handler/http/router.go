package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/handler/http/middleware"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Metrics serves GET /metrics and observes every request when set.
	Metrics interface {
		middleware.RequestObserver
		Handler() http.Handler
	}
}

type Handlers struct {
	Auth         AuthHandler
	Attendance   AttendanceHandler
	Timesheet    TimesheetHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Post("/auth/login", h.Auth.Login)

		// EventSource cannot send headers; the stream authenticates with a
		// short-lived query token.
		r.Get("/events", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Get("/auth/me", h.Auth.Me)
			r.Post("/events/token", h.Notification.GetSSEToken)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/history", h.Attendance.History)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceClock))
					r.Get("/status", h.Attendance.Status)
					r.Get("/today", h.Attendance.Today)
					r.Post("/clock-in", h.Attendance.ClockIn)
					r.Post("/clock-out", h.Attendance.ClockOut)
					r.Post("/break-start", h.Attendance.StartBreak)
					r.Post("/break-end", h.Attendance.EndBreak)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).
					Get("/", h.Attendance.List)
				r.With(middleware.RequirePermission(user.PermissionOvertimeApprove)).
					Put("/{id}/overtime/approve", h.Attendance.ApproveOvertime)

				r.Route("/late-permissions", func(r chi.Router) {
					r.Get("/", h.Attendance.ListLatePermissions)
					r.With(middleware.RequirePermission(user.PermissionLatePermissionRequest)).
						Post("/", h.Attendance.RequestLatePermission)
					r.With(middleware.RequirePermission(user.PermissionLatePermissionGrant)).
						Post("/grant", h.Attendance.GrantLatePermission)
				})
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Get("/", h.Timesheet.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionTimesheetSubmit))
					r.Get("/week", h.Timesheet.Week)
					r.Put("/draft", h.Timesheet.SaveDraft)
					r.Post("/submit", h.Timesheet.Submit)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Timesheet.Get)
					r.With(middleware.RequirePermission(user.PermissionTimesheetExport)).
						Get("/export", h.Timesheet.Export)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionTimesheetReview))
						r.Put("/approve", h.Timesheet.Approve)
						r.Put("/reject", h.Timesheet.Reject)
					})
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Put("/read", h.Notification.MarkAsRead)
				r.Put("/read-all", h.Notification.MarkAllAsRead)
				r.Delete("/{id}", h.Notification.Delete)
			})
		})
	})
	return r
}

// NewLogger builds the JSON slog logger used for request and service logs.
func NewLogger(app, version, env string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app),
		slog.String("version", version),
		slog.String("env", env),
	)
}
