package session

import (
	"sync"

	"github.com/google/uuid"
)

// NavPayload is data attached to a single client-side navigation. It is
// never persisted and expires as soon as the next navigation replaces it.
type NavPayload struct {
	ID      string
	Session Session
}

// NavState holds the payload for the current navigation transition. The
// auth callback stages a user record here on the session_id path so the
// destination login screen can pick it up exactly once.
type NavState struct {
	mu      sync.Mutex
	payload *NavPayload
}

// NewNavState returns an empty navigation-state holder.
func NewNavState() *NavState {
	return &NavState{}
}

// Set attaches a session to the current navigation, replacing any payload
// from a previous transition.
func (n *NavState) Set(sess Session) NavPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payload = &NavPayload{ID: uuid.NewString(), Session: sess}
	return *n.payload
}

// Get returns the current payload without consuming it.
func (n *NavState) Get() (NavPayload, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.payload == nil {
		return NavPayload{}, false
	}
	return *n.payload, true
}

// Take returns the current payload and clears it, for one-time pickup.
func (n *NavState) Take() (NavPayload, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.payload == nil {
		return NavPayload{}, false
	}
	p := *n.payload
	n.payload = nil
	return p, true
}
