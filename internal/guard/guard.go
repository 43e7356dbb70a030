// Package guard decides whether the current session may enter a protected
// route. One algorithm serves all three protection levels, parameterized
// by a required-role predicate.
package guard

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"campuspass/internal/gateway"
	"campuspass/internal/metrics"
	"campuspass/internal/nav"
	"campuspass/internal/session"
)

// Requirement is a named required-role predicate.
type Requirement struct {
	Name      string
	Satisfied func(session.Role) bool
}

// The three stock protection levels.
var (
	AnyAuthenticated = Requirement{
		Name:      "authenticated",
		Satisfied: func(session.Role) bool { return true },
	}
	AdminOrAbove = Requirement{
		Name:      "admin",
		Satisfied: session.Role.CanManageEvents,
	}
	SuperAdminOnly = Requirement{
		Name:      "superadmin",
		Satisfied: session.Role.IsSuperAdmin,
	}
)

// Decision is the guard's verdict for one evaluation.
type Decision int

const (
	// DecisionPending is the neutral state while resolution is in flight;
	// a guard never optimistically grants or denies.
	DecisionPending Decision = iota
	DecisionGranted
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	default:
		return "pending"
	}
}

// Denial distinguishes the two refusal shapes: no session at all redirects
// to login, while a role mismatch renders access-denied in place. A
// logged-in student hitting an admin route must see the latter.
type Denial int

const (
	DenialNone Denial = iota
	DenialNoSession
	DenialRoleMismatch
)

// Result is the derived, never-stored outcome of one guard evaluation.
type Result struct {
	Decision   Decision
	Denial     Denial
	Session    *session.Session
	Source     session.Source
	RedirectTo nav.Route
}

// WhoAmI is the backend fallback used when no local session exists.
type WhoAmI interface {
	Me(ctx context.Context) (session.Session, error)
}

// Guard resolves sessions through the store's fixed fallback order and,
// failing that, the backend. Concurrent backend lookups from guards
// mounting at the same time are collapsed into a single call.
type Guard struct {
	store   *session.Store
	backend WhoAmI
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds a guard.
func New(store *session.Store, backend WhoAmI, logger *slog.Logger, m *metrics.Metrics) *Guard {
	return &Guard{store: store, backend: backend, logger: logger, metrics: m}
}

// Evaluate resolves the current session and applies the requirement. It is
// run independently on every mount of a guarded route; nothing is cached
// between evaluations except the session store's own contents.
func (g *Guard) Evaluate(ctx context.Context, req Requirement) Result {
	sess, source, ok := g.store.Read()
	if !ok {
		resolved, err := g.whoAmI(ctx)
		if err != nil {
			if !errors.Is(err, gateway.ErrUnauthenticated) {
				g.logger.Warn("who-am-I lookup failed", "error", err)
			}
			return g.finish(req, Result{
				Decision:   DecisionDenied,
				Denial:     DenialNoSession,
				RedirectTo: nav.RouteLogin,
			})
		}
		sess = resolved
		source = session.SourceBackend
	}

	if !req.Satisfied(sess.Role) {
		return g.finish(req, Result{
			Decision: DecisionDenied,
			Denial:   DenialRoleMismatch,
			Session:  &sess,
			Source:   source,
		})
	}

	return g.finish(req, Result{
		Decision: DecisionGranted,
		Session:  &sess,
		Source:   source,
	})
}

func (g *Guard) finish(req Requirement, res Result) Result {
	g.metrics.ObserveGuardDecision(req.Name, res.Decision.String())
	return res
}

// whoAmI de-duplicates concurrent backend lookups: simultaneously mounting
// guards share one in-flight call and its result.
func (g *Guard) whoAmI(ctx context.Context) (session.Session, error) {
	v, err, _ := g.group.Do("whoami", func() (any, error) {
		g.metrics.ObserveWhoAmICall()
		return g.backend.Me(ctx)
	})
	if err != nil {
		return session.Session{}, err
	}
	return v.(session.Session), nil
}
