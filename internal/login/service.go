// Package login covers the authentication entry points that are not
// redirect-driven: OAuth initiation, the optional superadmin credential
// login, the development test login, and logout.
package login

import (
	"context"
	"fmt"
	"log/slog"

	"campuspass/internal/session"
)

// Gateway is the slice of the backend client the login service uses.
type Gateway interface {
	SuperAdminLogin(ctx context.Context, email, password string) (session.Session, error)
	TestLogin(ctx context.Context) (session.Session, error)
	Logout(ctx context.Context) error
}

// Canceller releases the refresh timer on logout.
type Canceller interface {
	Arm()
	Cancel()
}

// Service orchestrates logins and logout against the gateway and the
// session store.
type Service struct {
	gateway   Gateway
	store     *session.Store
	scheduler Canceller
	logger    *slog.Logger
}

// NewService wires the login service.
func NewService(gateway Gateway, store *session.Store, scheduler Canceller, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, store: store, scheduler: scheduler, logger: logger}
}

// SuperAdmin performs the credentials-based superadmin login. It coexists
// with OAuth: a successful login persists the session and arms the
// refresh timer exactly like the access_token exchange path.
func (s *Service) SuperAdmin(ctx context.Context, email, password string) (session.Session, error) {
	sess, err := s.gateway.SuperAdminLogin(ctx, email, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("superadmin login: %w", err)
	}
	if err := s.store.Write(sess); err != nil {
		s.logger.Warn("failed to persist superadmin session locally", "error", err)
	}
	s.scheduler.Arm()
	s.logger.Info("superadmin login successful", "user_id", sess.UserID)
	return sess, nil
}

// Test obtains a throwaway development session and places it in the
// ephemeral slot, where it overrides any durable session until the
// process exits.
func (s *Service) Test(ctx context.Context) (session.Session, error) {
	sess, err := s.gateway.TestLogin(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("test login: %w", err)
	}
	if err := s.store.WriteTest(sess); err != nil {
		return session.Session{}, fmt.Errorf("test login: %w", err)
	}
	return sess, nil
}

// Logout ends the session everywhere: the refresh timer is cancelled
// first so no tick can renew a session the user intends to end, then the
// backend session is destroyed, then the local copies are cleared. A
// backend failure does not keep the client logged in.
func (s *Service) Logout(ctx context.Context) error {
	s.scheduler.Cancel()

	if err := s.gateway.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed, clearing local session anyway", "error", err)
	}

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("logout: clear local session: %w", err)
	}
	return nil
}
