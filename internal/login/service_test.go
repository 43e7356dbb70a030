package login

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"testing"

	"campuspass/internal/session"
)

type fakeGateway struct {
	sess      session.Session
	err       error
	logoutErr error

	superCalls  int
	testCalls   int
	logoutCalls int
	lastEmail   string
}

func (f *fakeGateway) SuperAdminLogin(ctx context.Context, email, password string) (session.Session, error) {
	f.superCalls++
	f.lastEmail = email
	if f.err != nil {
		return session.Session{}, f.err
	}
	return f.sess, nil
}

func (f *fakeGateway) TestLogin(ctx context.Context) (session.Session, error) {
	f.testCalls++
	if f.err != nil {
		return session.Session{}, f.err
	}
	return f.sess, nil
}

func (f *fakeGateway) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

type fakeScheduler struct {
	armed     int
	cancelled int
}

func (f *fakeScheduler) Arm()    { f.armed++ }
func (f *fakeScheduler) Cancel() { f.cancelled++ }

func newStore(t *testing.T) *session.Store {
	t.Helper()
	durable, err := session.NewFileSlot(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("file slot: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewStore(session.NewMemorySlot(), durable, session.NewNavState(), logger)
}

func newService(t *testing.T, gw *fakeGateway) (*Service, *session.Store, *fakeScheduler) {
	t.Helper()
	store := newStore(t)
	sched := &fakeScheduler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(gw, store, sched, logger), store, sched
}

func superSession() session.Session {
	return session.Session{UserID: "sa1", Email: "root@college.edu", Name: "Root", Role: session.RoleSuperAdmin}
}

func TestSuperAdminLoginPersistsAndArms(t *testing.T) {
	gw := &fakeGateway{sess: superSession()}
	svc, store, sched := newService(t, gw)

	sess, err := svc.SuperAdmin(context.Background(), "root@college.edu", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Role != session.RoleSuperAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}
	if gw.lastEmail != "root@college.edu" {
		t.Fatalf("expected credentials forwarded, got %q", gw.lastEmail)
	}
	if _, ok := store.ReadDurable(); !ok {
		t.Fatal("expected session persisted")
	}
	if sched.armed != 1 {
		t.Fatalf("expected refresh timer armed, got %d", sched.armed)
	}
}

func TestSuperAdminLoginFailureLeavesNothingBehind(t *testing.T) {
	gw := &fakeGateway{err: errors.New("bad credentials")}
	svc, store, sched := newService(t, gw)

	if _, err := svc.SuperAdmin(context.Background(), "root@college.edu", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := store.ReadDurable(); ok {
		t.Fatal("no session may be persisted on failed login")
	}
	if sched.armed != 0 {
		t.Fatal("no timer may be armed on failed login")
	}
}

func TestTestLoginWritesEphemeralSlot(t *testing.T) {
	testUser := session.Session{UserID: "t1", Email: "test@college.edu", Name: "Test", Role: session.RoleStudent}
	gw := &fakeGateway{sess: testUser}
	svc, store, _ := newService(t, gw)

	if _, err := svc.Test(context.Background()); err != nil {
		t.Fatalf("test login: %v", err)
	}

	if _, ok := store.ReadDurable(); ok {
		t.Fatal("test login must not touch the durable slot")
	}
	got, source, ok := store.Read()
	if !ok || source != session.SourceEphemeral {
		t.Fatalf("expected ephemeral session, got ok=%v source=%q", ok, source)
	}
	if got.UserID != "t1" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestLogoutCancelsTimerAndClearsStore(t *testing.T) {
	gw := &fakeGateway{sess: superSession()}
	svc, store, sched := newService(t, gw)
	if _, err := svc.SuperAdmin(context.Background(), "root@college.edu", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sched.cancelled != 1 {
		t.Fatalf("expected timer cancelled, got %d", sched.cancelled)
	}
	if gw.logoutCalls != 1 {
		t.Fatalf("expected backend logout, got %d", gw.logoutCalls)
	}
	if _, ok := store.ReadDurable(); ok {
		t.Fatal("expected local session cleared")
	}
}

func TestLogoutClearsLocallyEvenWhenBackendFails(t *testing.T) {
	gw := &fakeGateway{sess: superSession(), logoutErr: errors.New("gateway down")}
	svc, store, _ := newService(t, gw)
	if _, err := svc.SuperAdmin(context.Background(), "root@college.edu", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := store.ReadDurable(); ok {
		t.Fatal("expected local session cleared despite backend failure")
	}
}

func TestConsentURLCarriesStateAndScopes(t *testing.T) {
	initiator, err := NewInitiator("client-1", "https://provider.test/authorize", "http://localhost:8080/callback")
	if err != nil {
		t.Fatalf("new initiator: %v", err)
	}

	state, err := GenerateState()
	if err != nil {
		t.Fatalf("generate state: %v", err)
	}

	consent, err := url.Parse(initiator.ConsentURL(state))
	if err != nil {
		t.Fatalf("parse consent URL: %v", err)
	}
	q := consent.Query()
	if q.Get("state") != state {
		t.Fatalf("expected state %q, got %q", state, q.Get("state"))
	}
	if q.Get("client_id") != "client-1" {
		t.Fatalf("expected client_id, got %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://localhost:8080/callback" {
		t.Fatalf("unexpected redirect_uri %q", q.Get("redirect_uri"))
	}
}

func TestNewInitiatorValidatesConfig(t *testing.T) {
	if _, err := NewInitiator("", "https://provider.test/authorize", ""); err == nil {
		t.Fatal("expected error for missing client ID")
	}
	if _, err := NewInitiator("client-1", "", ""); err == nil {
		t.Fatal("expected error for missing auth URL")
	}
}
