package shell

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"campuspass/internal/callback"
	"campuspass/internal/gateway"
	"campuspass/internal/login"
	"campuspass/internal/nav"
	"campuspass/internal/session"
)

// AuthHandler exposes the authentication flow over the shell's local HTTP
// surface: the OAuth callback capture, login initiation, the optional
// credential logins, and logout.
type AuthHandler struct {
	machine         *callback.Machine
	initiator       *login.Initiator
	loginService    *login.Service
	notices         *Notices
	logger          *slog.Logger
	superAdminLogin bool
	testLogin       bool
}

// NewAuthHandler creates the handler. initiator may be nil when no OAuth
// provider is configured for this deployment.
func NewAuthHandler(machine *callback.Machine, initiator *login.Initiator, loginService *login.Service, notices *Notices, superAdminLogin, testLogin bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		machine:         machine,
		initiator:       initiator,
		loginService:    loginService,
		notices:         notices,
		logger:          logger,
		superAdminLogin: superAdminLogin,
		testLogin:       testLogin,
	}
}

// Callback handles GET /callback, the provider redirect target. It runs
// the callback state machine over the incoming URL and then navigates the
// shell to wherever the machine routed. Fragment-borne credentials are
// relayed by the page in the "fragment" query parameter, since fragments
// never reach a server on their own.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	navID := r.Header.Get("X-Navigation-Id")
	if navID == "" {
		navID = uuid.NewString()
	}

	fragment := r.URL.RawFragment
	if fragment == "" {
		fragment = r.URL.Query().Get("fragment")
	}

	outcome := h.machine.Handle(r.Context(), navID, fragment, r.URL.RawQuery)
	http.Redirect(w, r, string(outcome.Route), http.StatusSeeOther)
}

// LoginURL handles GET /auth/login/url and returns the provider consent
// URL for a fresh login attempt.
func (h *AuthHandler) LoginURL(w http.ResponseWriter, r *http.Request) {
	if h.initiator == nil {
		writeError(w, http.StatusServiceUnavailable, "OAuth login is not configured")
		return
	}

	state, err := login.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":   h.initiator.ConsentURL(state),
		"state": state,
	})
}

// SuperAdminLogin handles POST /auth/login/superadmin, the optional
// credentials-based login path that coexists with OAuth.
func (h *AuthHandler) SuperAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !h.superAdminLogin {
		writeError(w, http.StatusForbidden, "credential login is disabled")
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	sess, err := h.loginService.SuperAdmin(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeLoginFailure(w, err)
		return
	}

	h.notices.Success("Welcome, " + sess.Name + "!")
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  sess,
		"route": nav.RouteSuperAdminPanel,
	})
}

// TestLogin handles POST /auth/login/test, the development-only login
// that fills the ephemeral test-user slot.
func (h *AuthHandler) TestLogin(w http.ResponseWriter, r *http.Request) {
	if !h.testLogin {
		writeError(w, http.StatusForbidden, "test login is disabled")
		return
	}

	sess, err := h.loginService.Test(r.Context())
	if err != nil {
		h.writeLoginFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  sess,
		"route": nav.ForRole(sess.Role),
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.loginService.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notices handles GET /notices (peek) and DELETE /notices (dismiss).
func (h *AuthHandler) Notices(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		writeJSON(w, http.StatusOK, map[string]any{"notices": h.notices.Drain()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": h.notices.Peek()})
}

func (h *AuthHandler) writeLoginFailure(w http.ResponseWriter, err error) {
	var rejected *gateway.RejectedError
	if errors.As(err, &rejected) {
		writeError(w, rejected.StatusCode, rejected.Detail)
		return
	}
	h.logger.Error("login failed", "error", err)
	writeError(w, http.StatusBadGateway, "login failed")
}

// navAffordance is the navigation surface appropriate to a resolved role,
// rendered alongside granted content.
func navAffordance(role session.Role) []nav.Route {
	routes := []nav.Route{nav.RouteHome}
	if role.CanManageEvents() {
		routes = append(routes, nav.RouteAdmin)
	}
	if role.IsSuperAdmin() {
		routes = append(routes, nav.RouteSuperAdminPanel)
	}
	return routes
}
