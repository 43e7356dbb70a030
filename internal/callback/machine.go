// Package callback drives the post-redirect authentication flow: parse the
// redirect URL, exchange its credential with the backend gateway, persist
// the session, arm the refresh scheduler, and route by role.
package callback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"campuspass/internal/gateway"
	"campuspass/internal/metrics"
	"campuspass/internal/nav"
	"campuspass/internal/redirect"
	"campuspass/internal/session"
)

// State is the machine's position in the callback flow.
type State int

const (
	StateIdle State = iota
	StateParsing
	StateExchanging
	StatePersisting
	StateSchedulingRefresh
	StateRouting
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateExchanging:
		return "exchanging"
	case StatePersisting:
		return "persisting"
	case StateSchedulingRefresh:
		return "scheduling_refresh"
	case StateRouting:
		return "routing"
	case StateDone:
		return "done"
	default:
		return "error"
	}
}

// ErrMissingCredential is the terminal parse failure: the redirect carried
// neither auth material nor a provider error.
var ErrMissingCredential = errors.New("callback: no credential in redirect")

// Exchanger is the slice of the gateway the machine depends on.
type Exchanger interface {
	ExchangeSession(ctx context.Context, sessionID string) (session.Session, error)
	ExchangeToken(ctx context.Context, accessToken string) (session.Session, error)
}

// Armer arms the background session refresh.
type Armer interface {
	Arm()
}

// Notifier surfaces user-visible outcomes. Failures are always delivered
// here, never as raw errors to the rendering layer.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Outcome is the terminal result of one callback invocation.
type Outcome struct {
	State   State
	Route   nav.Route
	Session *session.Session
	Err     error
}

// Machine processes one OAuth redirect per physical navigation. An
// idempotency guard makes a second invocation for the same navigation a
// no-op returning the original outcome, so a duplicate trigger never
// repeats the network exchange.
type Machine struct {
	gateway   Exchanger
	store     *session.Store
	scheduler Armer
	navigator nav.Navigator
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu        sync.Mutex
	processed map[string]Outcome
}

// NewMachine wires the callback machine.
func NewMachine(g Exchanger, store *session.Store, scheduler Armer, navigator nav.Navigator, notifier Notifier, logger *slog.Logger, m *metrics.Metrics) *Machine {
	return &Machine{
		gateway:   g,
		store:     store,
		scheduler: scheduler,
		navigator: navigator,
		notifier:  notifier,
		logger:    logger,
		metrics:   m,
		processed: make(map[string]Outcome),
	}
}

// Handle runs the state machine for the navigation identified by navID over
// the redirect URL's fragment and query components.
func (m *Machine) Handle(ctx context.Context, navID, fragment, query string) Outcome {
	m.mu.Lock()
	if prior, done := m.processed[navID]; done {
		m.mu.Unlock()
		m.logger.Debug("callback already processed for this navigation", "nav_id", navID)
		return prior
	}
	// Reserve the slot before releasing the lock so a concurrent duplicate
	// cannot start a second exchange.
	m.processed[navID] = Outcome{State: StateParsing}
	m.mu.Unlock()

	outcome := m.process(ctx, fragment, query)

	m.mu.Lock()
	m.processed[navID] = outcome
	m.mu.Unlock()
	return outcome
}

func (m *Machine) process(ctx context.Context, fragment, query string) Outcome {
	cred := redirect.Parse(fragment, query)
	switch cred.Kind {
	case redirect.KindSessionID:
		return m.exchangeSessionID(ctx, cred.Value)
	case redirect.KindAccessToken:
		return m.exchangeAccessToken(ctx, cred.Value)
	case redirect.KindError:
		m.logger.Warn("provider returned an auth error", "error", cred.Value)
		return m.fail(fmt.Errorf("callback: provider error: %s", cred.Value), "Authentication failed: "+cred.Value)
	default:
		m.logger.Error("no credential found in redirect")
		return m.fail(ErrMissingCredential, "Invalid authentication response")
	}
}

// exchangeSessionID handles the session_id path. The backend-set cookie is
// the only session artifact kept: no local copy is persisted, and the user
// is routed to a login-adjacent screen that picks the record up from
// navigation state to finish its own login step. Callers must preserve
// this asymmetry with the access_token path.
func (m *Machine) exchangeSessionID(ctx context.Context, sessionID string) Outcome {
	sess, err := m.gateway.ExchangeSession(ctx, sessionID)
	if err != nil {
		m.metrics.ObserveExchange("session", "failed")
		return m.exchangeFailed(err)
	}
	m.metrics.ObserveExchange("session", "ok")
	m.notifier.Success("Welcome, " + sess.Name + "!")

	m.store.NavState().Set(sess)

	route := nav.RouteLogin
	if sess.Role == session.RoleAdmin {
		route = nav.RouteAdminLogin
	}
	return m.route(route, sess)
}

// exchangeAccessToken handles the access_token path: persist the returned
// record to the durable slot, arm the refresh timer, then route by role.
// Persistence completes before routing so the destination guard cannot
// re-read the store ahead of the write.
func (m *Machine) exchangeAccessToken(ctx context.Context, accessToken string) Outcome {
	sess, err := m.gateway.ExchangeToken(ctx, accessToken)
	if err != nil {
		m.metrics.ObserveExchange("token", "failed")
		return m.exchangeFailed(err)
	}
	m.metrics.ObserveExchange("token", "ok")
	m.notifier.Success("Welcome, " + sess.Name + "!")

	if err := m.store.Write(sess); err != nil {
		// The backend cookie is already set; a persist failure degrades
		// to cookie-only auth rather than aborting the login.
		m.logger.Warn("failed to persist session locally", "error", err)
	}

	m.scheduler.Arm()

	m.store.NavState().Set(sess)
	return m.route(nav.ForRole(sess.Role), sess)
}

func (m *Machine) route(route nav.Route, sess session.Session) Outcome {
	m.navigator.Navigate(route, &sess)
	return Outcome{State: StateDone, Route: route, Session: &sess}
}

func (m *Machine) exchangeFailed(err error) Outcome {
	m.logger.Error("credential exchange failed", "error", err)

	message := "Authentication failed"
	var rejected *gateway.RejectedError
	var malformed *gateway.MalformedError
	switch {
	case errors.As(err, &rejected):
		message = "Authentication failed: " + rejected.Detail
	case errors.As(err, &malformed):
		message = "Authentication failed: unexpected response from server"
	}
	return m.fail(err, message)
}

// fail is the single Error-state exit: notify the user and send them back
// to the login route. No automatic retry is attempted.
func (m *Machine) fail(err error, message string) Outcome {
	m.notifier.Error(message)
	m.navigator.Navigate(nav.RouteLogin, nil)
	return Outcome{State: StateError, Route: nav.RouteLogin, Err: err}
}
