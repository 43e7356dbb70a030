package shell

import (
	"net/http"
)

// SessionHandler reports the guard-resolved session for the current
// protection level. One handler serves all three guarded probes; the
// guard middleware has already done the deciding by the time it runs.
type SessionHandler struct{}

// NewSessionHandler creates the handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get returns the resolved session plus the navigation affordance for its
// role.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		// The guard middleware always runs first; a missing session here
		// is a wiring bug, not a user error.
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":             sess,
		"nav":              navAffordance(sess.Role),
		"profile_complete": sess.ProfileComplete(),
	})
}
