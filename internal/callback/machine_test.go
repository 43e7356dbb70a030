package callback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"campuspass/internal/gateway"
	"campuspass/internal/metrics"
	"campuspass/internal/nav"
	"campuspass/internal/session"
)

type fakeExchanger struct {
	sessionCalls int
	tokenCalls   int
	sess         session.Session
	err          error

	lastSessionID   string
	lastAccessToken string
}

func (f *fakeExchanger) ExchangeSession(ctx context.Context, sessionID string) (session.Session, error) {
	f.sessionCalls++
	f.lastSessionID = sessionID
	if f.err != nil {
		return session.Session{}, f.err
	}
	return f.sess, nil
}

func (f *fakeExchanger) ExchangeToken(ctx context.Context, accessToken string) (session.Session, error) {
	f.tokenCalls++
	f.lastAccessToken = accessToken
	if f.err != nil {
		return session.Session{}, f.err
	}
	return f.sess, nil
}

type fakeArmer struct {
	armed int
}

func (f *fakeArmer) Arm() { f.armed++ }

type recordingNavigator struct {
	routes   []nav.Route
	sessions []*session.Session
}

func (r *recordingNavigator) Navigate(route nav.Route, sess *session.Session) {
	r.routes = append(r.routes, route)
	r.sessions = append(r.sessions, sess)
}

func (r *recordingNavigator) last() nav.Route {
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (r *recordingNotifier) Success(message string) { r.successes = append(r.successes, message) }
func (r *recordingNotifier) Error(message string)   { r.errors = append(r.errors, message) }

type fixture struct {
	machine   *Machine
	exchanger *fakeExchanger
	armer     *fakeArmer
	navigator *recordingNavigator
	notifier  *recordingNotifier
	store     *session.Store
}

func newFixture(t *testing.T, exchanger *fakeExchanger) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	durable, err := session.NewFileSlot(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("file slot: %v", err)
	}
	store := session.NewStore(session.NewMemorySlot(), durable, session.NewNavState(), logger)
	armer := &fakeArmer{}
	navigator := &recordingNavigator{}
	notifier := &recordingNotifier{}
	m := metrics.New(prometheus.NewRegistry())
	machine := NewMachine(exchanger, store, armer, navigator, notifier, logger, m)
	return &fixture{
		machine:   machine,
		exchanger: exchanger,
		armer:     armer,
		navigator: navigator,
		notifier:  notifier,
		store:     store,
	}
}

func studentSession() session.Session {
	return session.Session{UserID: "u1", Email: "ana@college.edu", Name: "Ana", Role: session.RoleStudent}
}

func TestAccessTokenPathPersistsArmsAndRoutesHome(t *testing.T) {
	fx := newFixture(t, &fakeExchanger{sess: studentSession()})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "#access_token=abc123", "")

	if outcome.State != StateDone {
		t.Fatalf("expected done, got %v (err %v)", outcome.State, outcome.Err)
	}
	if fx.exchanger.lastAccessToken != "abc123" {
		t.Fatalf("expected token exchange with abc123, got %q", fx.exchanger.lastAccessToken)
	}
	if outcome.Route != nav.RouteHome {
		t.Fatalf("expected default authenticated route, got %q", outcome.Route)
	}
	if outcome.Session == nil || outcome.Session.Name != "Ana" {
		t.Fatalf("expected session attached to navigation, got %+v", outcome.Session)
	}

	if _, ok := fx.store.ReadDurable(); !ok {
		t.Fatal("expected session persisted to durable slot")
	}
	if fx.armer.armed != 1 {
		t.Fatalf("expected refresh timer armed once, got %d", fx.armer.armed)
	}
	if len(fx.notifier.successes) != 1 || !strings.Contains(fx.notifier.successes[0], "Ana") {
		t.Fatalf("expected welcome notification, got %v", fx.notifier.successes)
	}
}

func TestAccessTokenPathRoutesAdminsByRole(t *testing.T) {
	admin := studentSession()
	admin.Role = session.RoleAdmin
	fx := newFixture(t, &fakeExchanger{sess: admin})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "#access_token=tok", "")
	if outcome.Route != nav.RouteAdmin {
		t.Fatalf("expected admin route, got %q", outcome.Route)
	}

	super := studentSession()
	super.Role = session.RoleSuperAdmin
	fx = newFixture(t, &fakeExchanger{sess: super})

	outcome = fx.machine.Handle(context.Background(), "nav-1", "#access_token=tok", "")
	if outcome.Route != nav.RouteSuperAdminPanel {
		t.Fatalf("expected superadmin route, got %q", outcome.Route)
	}
}

func TestRejectedExchangeLeavesNoSessionAndNoTimer(t *testing.T) {
	fx := newFixture(t, &fakeExchanger{err: &gateway.RejectedError{StatusCode: 401, Detail: "invalid token"}})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "#access_token=bad", "")

	if outcome.State != StateError {
		t.Fatalf("expected error state, got %v", outcome.State)
	}
	if outcome.Route != nav.RouteLogin {
		t.Fatalf("expected redirect to login, got %q", outcome.Route)
	}
	if _, ok := fx.store.ReadDurable(); ok {
		t.Fatal("no session may be persisted on a rejected exchange")
	}
	if fx.armer.armed != 0 {
		t.Fatal("no timer may be armed on a rejected exchange")
	}
	if len(fx.notifier.errors) != 1 || !strings.Contains(fx.notifier.errors[0], "invalid token") {
		t.Fatalf("expected notification carrying the server detail, got %v", fx.notifier.errors)
	}
}

func TestSessionIDPathDoesNotPersistLocally(t *testing.T) {
	fx := newFixture(t, &fakeExchanger{sess: studentSession()})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "", "?session_id=sid-1")

	if outcome.State != StateDone {
		t.Fatalf("expected done, got %v (err %v)", outcome.State, outcome.Err)
	}
	if fx.exchanger.lastSessionID != "sid-1" {
		t.Fatalf("expected session exchange with sid-1, got %q", fx.exchanger.lastSessionID)
	}
	if outcome.Route != nav.RouteLogin {
		t.Fatalf("expected login-adjacent route, got %q", outcome.Route)
	}

	// The cookie is the only session artifact on this path.
	if _, ok := fx.store.ReadDurable(); ok {
		t.Fatal("session_id path must not persist a durable copy")
	}
	if fx.armer.armed != 0 {
		t.Fatal("session_id path must not arm the refresh timer")
	}

	// The record travels via one-shot navigation state instead.
	payload, ok := fx.store.NavState().Take()
	if !ok {
		t.Fatal("expected user record staged in navigation state")
	}
	if payload.Session.Name != "Ana" {
		t.Fatalf("unexpected staged record %+v", payload.Session)
	}
}

func TestSessionIDPathRoutesAdminsToAdminLogin(t *testing.T) {
	admin := studentSession()
	admin.Role = session.RoleAdmin
	fx := newFixture(t, &fakeExchanger{sess: admin})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "#session_id=sid", "")
	if outcome.Route != nav.RouteAdminLogin {
		t.Fatalf("expected admin login route, got %q", outcome.Route)
	}
}

func TestHandleIsIdempotentPerNavigation(t *testing.T) {
	fx := newFixture(t, &fakeExchanger{sess: studentSession()})

	first := fx.machine.Handle(context.Background(), "nav-1", "#access_token=tok", "")
	second := fx.machine.Handle(context.Background(), "nav-1", "#access_token=tok", "")

	if fx.exchanger.tokenCalls != 1 {
		t.Fatalf("expected exactly one exchange, got %d", fx.exchanger.tokenCalls)
	}
	if second.State != first.State || second.Route != first.Route {
		t.Fatalf("expected replayed outcome, got %+v vs %+v", second, first)
	}

	// A different navigation processes normally.
	fx.machine.Handle(context.Background(), "nav-2", "#access_token=tok", "")
	if fx.exchanger.tokenCalls != 2 {
		t.Fatalf("expected a second exchange for a new navigation, got %d", fx.exchanger.tokenCalls)
	}
}

func TestMissingCredentialGoesToError(t *testing.T) {
	fx := newFixture(t, &fakeExchanger{})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "", "?foo=bar")

	if outcome.State != StateError {
		t.Fatalf("expected error state, got %v", outcome.State)
	}
	if !errors.Is(outcome.Err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", outcome.Err)
	}
	if fx.exchanger.sessionCalls+fx.exchanger.tokenCalls != 0 {
		t.Fatal("no exchange may happen without a credential")
	}
	if fx.navigator.last() != nav.RouteLogin {
		t.Fatalf("expected navigation to login, got %q", fx.navigator.last())
	}
}

func TestProviderErrorVariantGoesToError(t *testing.T) {
	fx := newFixture(t, &fakeExchanger{})

	outcome := fx.machine.Handle(context.Background(), "nav-1", "#error=access_denied", "")

	if outcome.State != StateError {
		t.Fatalf("expected error state, got %v", outcome.State)
	}
	if len(fx.notifier.errors) != 1 || !strings.Contains(fx.notifier.errors[0], "access_denied") {
		t.Fatalf("expected provider error surfaced, got %v", fx.notifier.errors)
	}
}
