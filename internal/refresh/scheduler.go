// Package refresh keeps the backend session alive with a recurring
// background renewal. Timer handles are never persisted: the scheduler is
// re-armed freshly on every authenticated bootstrap instead.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"campuspass/internal/metrics"
	"campuspass/internal/session"
)

// DefaultInterval renews well before the backend's one-hour session expiry.
const DefaultInterval = 50 * time.Minute

const tickTimeout = 30 * time.Second

// Refresher renews the cookie-based backend session.
type Refresher interface {
	Refresh(ctx context.Context) (session.Session, error)
}

// Scheduler runs at most one recurring refresh timer per process. Arming
// is idempotent; Cancel stops the timer and must be called on logout so no
// dangling tick renews a session the user intended to end.
type Scheduler struct {
	gateway  Refresher
	store    *session.Store
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu   sync.Mutex
	stop chan struct{}
}

// NewScheduler builds a scheduler; interval zero means DefaultInterval.
func NewScheduler(gateway Refresher, store *session.Store, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		gateway:  gateway,
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// Arm starts the recurring timer. Arming while already armed is a no-op,
// so bootstrap and the callback path cannot stack timers.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	stop := make(chan struct{})
	s.stop = stop
	go s.run(stop)
}

// Cancel stops the timer if it is running.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// Armed reports whether the timer is currently running.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *Scheduler) run(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}

// tick performs one renewal. Failure is swallowed: the persisted session is
// left untouched and the user only notices staleness when a later guard
// check fails against the backend.
func (s *Scheduler) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	sess, err := s.gateway.Refresh(ctx)
	if err != nil {
		s.logger.Warn("session refresh failed, keeping existing session", "error", err)
		s.metrics.ObserveRefreshTick("failed")
		return
	}
	if err := s.store.Write(sess); err != nil {
		s.logger.Warn("failed to persist refreshed session", "error", err)
		s.metrics.ObserveRefreshTick("persist_failed")
		return
	}
	s.metrics.ObserveRefreshTick("ok")
}
