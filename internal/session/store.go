package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Source identifies which substrate a read was satisfied from.
type Source string

const (
	SourceEphemeral Source = "ephemeral"
	SourceDurable   Source = "durable"
	SourceNavState  Source = "navstate"
	// SourceBackend marks sessions resolved by a backend lookup rather
	// than any local slot.
	SourceBackend Source = "backend"
)

// Store is the single typed read/write path over the three client-side
// session substrates. Read precedence is fixed and load-bearing: a dev/test
// session in the ephemeral slot must override a stale durable session
// without deleting it.
type Store struct {
	ephemeral Slot
	durable   Slot
	nav       *NavState
	logger    *slog.Logger
}

// NewStore wires the store over explicit substrates; there are no ambient
// storage keys or globals.
func NewStore(ephemeral, durable Slot, nav *NavState, logger *slog.Logger) *Store {
	return &Store{ephemeral: ephemeral, durable: durable, nav: nav, logger: logger}
}

// Read resolves the current session, trying the ephemeral slot, then the
// durable slot, then the navigation-state payload. A slot whose content no
// longer deserializes as a session is treated as absent and removed; the
// parse failure never propagates.
func (s *Store) Read() (Session, Source, bool) {
	if sess, ok := s.readSlot(s.ephemeral, SourceEphemeral); ok {
		return sess, SourceEphemeral, true
	}
	if sess, ok := s.readSlot(s.durable, SourceDurable); ok {
		return sess, SourceDurable, true
	}
	if s.nav != nil {
		if p, ok := s.nav.Get(); ok {
			return p.Session, SourceNavState, true
		}
	}
	return Session{}, "", false
}

// ReadDurable resolves only the durable slot. The bootstrap path uses it to
// decide whether to re-arm the refresh scheduler.
func (s *Store) ReadDurable() (Session, bool) {
	sess, ok := s.readSlot(s.durable, SourceDurable)
	return sess, ok
}

// Write replaces the durable slot with the given session. Writes are always
// whole-record: partial-field mutation of stored state is not supported.
func (s *Store) Write(sess Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("store write: %w", err)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("store write: encode: %w", err)
	}
	return s.durable.Store(data)
}

// WriteTest places a session in the ephemeral test-user slot, which takes
// precedence over any durable session until the process exits.
func (s *Store) WriteTest(sess Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("store write test: %w", err)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("store write test: encode: %w", err)
	}
	return s.ephemeral.Store(data)
}

// Clear removes the ephemeral and durable slots. Navigation state is not
// owned by the store and expires on its own when replaced.
func (s *Store) Clear() error {
	var errs []error
	if err := s.ephemeral.Clear(); err != nil {
		errs = append(errs, err)
	}
	if err := s.durable.Clear(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NavState exposes the navigation-state holder for the callback machine and
// the login screen's one-time pickup.
func (s *Store) NavState() *NavState {
	return s.nav
}

func (s *Store) readSlot(slot Slot, source Source) (Session, bool) {
	data, err := slot.Load()
	if err != nil {
		s.logger.Warn("session slot read failed", "source", string(source), "error", err)
		return Session{}, false
	}
	if data == nil {
		return Session{}, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.healCorrupt(slot, source, err)
		return Session{}, false
	}
	if err := sess.Validate(); err != nil {
		s.healCorrupt(slot, source, err)
		return Session{}, false
	}
	return sess, true
}

// healCorrupt removes a slot entry that no longer deserializes as a session
// rather than surfacing the parse failure to callers.
func (s *Store) healCorrupt(slot Slot, source Source, cause error) {
	s.logger.Warn("removing corrupt session entry", "source", string(source), "error", cause)
	if err := slot.Clear(); err != nil {
		s.logger.Warn("failed to clear corrupt session entry", "source", string(source), "error", err)
	}
}
