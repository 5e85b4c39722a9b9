package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/timeclock/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	AppName        string
	Env            string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Handlers struct {
	Auth         AuthHandler
	Attendance   AttendanceHandler
	Report       ReportHandler
	Leave        LeaveHandler
	Notification NotificationHandler
	Stream       StreamHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	limit := middleware.RateLimitByUser(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	r.Route("/api/v1", func(r chi.Router) {

		// SSE authenticates with a short-lived query token
		r.Get("/stream", h.Stream.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Route("/auth", func(r chi.Router) {
				r.Get("/me", h.Auth.Me)
				r.Post("/logout", h.Auth.Logout)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/current", h.Attendance.Current)

				r.Group(func(r chi.Router) {
					r.Use(limit)
					r.Post("/clock-in", h.Attendance.ClockIn)
					r.Post("/clock-out", h.Attendance.ClockOut)
					r.Post("/report", h.Attendance.SubmitReport)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/monthly", h.Report.Monthly)
				r.Get("/months", h.Report.Months)
			})

			r.Route("/leave-requests", func(r chi.Router) {
				r.Get("/my", h.Leave.GetMyRequests)
				r.With(limit).Post("/", h.Leave.CreateRequest)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Put("/{id}/decision", h.Leave.DecideRequest)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/count", h.Notification.Count)
				r.Post("/sse-token", h.Notification.GetSSEToken)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "route not found", http.StatusNotFound)
	})
	return r
}
