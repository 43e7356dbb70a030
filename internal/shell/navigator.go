package shell

import (
	"log/slog"
	"sync"

	"campuspass/internal/nav"
	"campuspass/internal/session"
)

// BrowserNavigator tracks the shell's current client-side route, playing
// the part the history API plays in a browser.
type BrowserNavigator struct {
	logger *slog.Logger

	mu      sync.Mutex
	current nav.Route
}

func NewBrowserNavigator(logger *slog.Logger) *BrowserNavigator {
	return &BrowserNavigator{logger: logger, current: nav.RouteLogin}
}

// Navigate replaces the current route. The attached session, if any, has
// already been staged in navigation state by the caller.
func (b *BrowserNavigator) Navigate(route nav.Route, sess *session.Session) {
	b.mu.Lock()
	b.current = route
	b.mu.Unlock()

	if sess != nil {
		b.logger.Info("navigating", "route", string(route), "role", string(sess.Role))
		return
	}
	b.logger.Info("navigating", "route", string(route))
}

// Current returns the route the shell last navigated to.
func (b *BrowserNavigator) Current() nav.Route {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
