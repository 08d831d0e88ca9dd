/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. CORS:           Cross-origin requests for the frontend
  3. RequestLogger:  Structured request logging (httplog over slog)
  4. Recoverer:      Panic recovery (500 instead of crash)

ROUTE GROUPS:
  /api/auth/*       Login, logout, password change
  /api/employees/*  Roster management and balances (authenticated)
  /api/requests/*   Submission and the approval queue (authenticated)
  /api/calendar     Week slot view (authenticated)

  Supervisor-only routes additionally pass requireApprover.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Auth middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level: slog.LevelInfo,
	}))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(h.requireAuth).Post("/password", h.ChangePassword)
		})

		// Everything else requires a session
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.With(h.requireApprover).Post("/", h.CreateEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Get("/{id}/balance", h.GetBalance)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.SubmitRequest)
				r.Get("/", h.ListRequests)
				r.Get("/mine", h.ListMyRequests)
				r.With(h.requireApprover).Get("/pending", h.ListPendingRequests)
				r.With(h.requireApprover).Post("/{id}/approve", h.ApproveRequest)
				r.With(h.requireApprover).Post("/{id}/deny", h.DenyRequest)
			})

			r.Get("/calendar", h.Calendar)
		})
	})

	return r
}
