package shell

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"campuspass/internal/guard"
	"campuspass/internal/nav"
	"campuspass/internal/session"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func newSlogMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			duration := time.Since(start)
			logger.Info("http request", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "duration", duration.String())
		})
	}
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext extracts the guard-resolved session from the request
// context. Returns nil if no guard middleware ran.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// newGuardMiddleware evaluates the route guard on every request to the
// wrapped routes — the HTTP analogue of running the guard on every mount.
// The two denial shapes stay distinct: no session at all gets a 401 with a
// login redirect hint, a role mismatch gets a 403 access-denied body and
// stays on the page.
func newGuardMiddleware(g *guard.Guard, req guard.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := g.Evaluate(r.Context(), req)
			switch {
			case result.Decision == guard.DecisionGranted:
				ctx := context.WithValue(r.Context(), sessionContextKey, result.Session)
				next.ServeHTTP(w, r.WithContext(ctx))
			case result.Denial == guard.DenialRoleMismatch:
				writeError(w, http.StatusForbidden, "access denied")
			default:
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":    "authentication required",
					"redirect": string(nav.RouteLogin),
				})
			}
		})
	}
}

func newSecurityHeadersMiddleware(environment string) func(http.Handler) http.Handler {
	isDev := strings.EqualFold(environment, "development")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if !isDev {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
