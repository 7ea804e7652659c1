/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend
  5. Auth:       Bearer token verification on everything under /api
                 except /api/health and /api/auth/login

ROUTE GROUPS:
  /api/auth/*           Login
  /api/users/*          Roster and balances (HR gated for writes)
  /api/teams/*          Teams and availability
  /api/requests/*       Leave request lifecycle
  /api/holidays/*       Holiday registry (reviewer gated for writes)
  /api/notifications    Synthesized notifications
  /api/dashboard        Landing-page counters
  /api/seed             Demo dataset load (only when enabled)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/engine"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)
		r.Post("/auth/login", h.Login)

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Tokens))

			r.Get("/me", h.Me)
			r.Get("/notifications", h.GetNotifications)
			r.Get("/dashboard", h.GetDashboard)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
				r.Get("/{id}/ledger", h.GetLedger)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireCapability(func(c engine.Capabilities) bool { return c.CanManageUsers }))
					r.Post("/", h.CreateUser)
					r.Put("/{id}", h.UpdateUser)
					r.Delete("/{id}", h.DeleteUser)
					r.Post("/{id}/adjustments", h.AdjustBalance)
				})
			})

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", h.ListTeams)
				r.Get("/{id}", h.GetTeam)
				r.Get("/{id}/availability", h.GetAvailability)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireCapability(func(c engine.Capabilities) bool { return c.CanManageUsers }))
					r.Post("/", h.CreateTeam)
					r.Put("/{id}", h.UpdateTeam)
					r.Delete("/{id}", h.DeleteTeam)
				})
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.ListRequests)
				r.Post("/", h.CreateRequest)
				r.Get("/{id}", h.GetRequest)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireCapability(func(c engine.Capabilities) bool { return c.CanReview }))
					r.Post("/{id}/approve", h.ApproveRequest)
					r.Post("/{id}/reject", h.RejectRequest)
				})
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireCapability(func(c engine.Capabilities) bool { return c.CanManageHolidays }))
					r.Post("/", h.CreateHoliday)
					r.Put("/{id}", h.UpdateHoliday)
					r.Delete("/{id}", h.DeleteHoliday)
					r.Post("/import", h.ImportHolidays)
					r.Post("/defaults", h.ImportDefaultHolidays)
				})
			})

			// Demo data, off unless explicitly enabled
			if h.SeedEnabled {
				r.Post("/seed", h.Seed)
			}
		})
	})

	return r
}
