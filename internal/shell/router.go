package shell

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"campuspass/internal/config"
	"campuspass/internal/guard"
)

// Deps collects everything the router wires together.
type Deps struct {
	Auth     *AuthHandler
	Sessions *SessionHandler
	Events   *EventsHandler
	Guard    *guard.Guard
	Metrics  http.Handler
}

// NewRouter wires the shell's local routes and middleware using chi.
func NewRouter(cfg config.Config, deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Navigation-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Get("/callback", deps.Auth.Callback)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login/url", deps.Auth.LoginURL)
		r.Post("/login/superadmin", deps.Auth.SuperAdminLogin)
		r.Post("/login/test", deps.Auth.TestLogin)
		r.Post("/logout", deps.Auth.Logout)
	})

	r.Get("/notices", deps.Auth.Notices)
	r.Delete("/notices", deps.Auth.Notices)

	// Guarded surface. Each group re-evaluates its guard on every request.
	r.Group(func(r chi.Router) {
		r.Use(newGuardMiddleware(deps.Guard, guard.AnyAuthenticated))
		r.Get("/session", deps.Sessions.Get)
		r.Get("/events", deps.Events.List)
		r.Get("/events/{eventID}", deps.Events.Get)
		r.Post("/registrations", deps.Events.Register)
		r.Get("/registrations", deps.Events.MyRegistrations)
		r.Post("/tickets", deps.Events.OpenTicket)
		r.Get("/tickets", deps.Events.MyTickets)
	})

	r.Group(func(r chi.Router) {
		r.Use(newGuardMiddleware(deps.Guard, guard.AdminOrAbove))
		r.Get("/admin/session", deps.Sessions.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(newGuardMiddleware(deps.Guard, guard.SuperAdminOnly))
		r.Get("/superadmin/session", deps.Sessions.Get)
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
