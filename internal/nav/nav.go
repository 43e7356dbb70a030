// Package nav defines the client-side route table and the navigation
// contract the auth flow drives.
package nav

import "campuspass/internal/session"

// Route is a client-side route path.
type Route string

const (
	RouteHome            Route = "/"
	RouteLogin           Route = "/login"
	RouteAdminLogin      Route = "/admin/login"
	RouteAdmin           Route = "/admin"
	RouteSuperAdminPanel Route = "/superadmin/panel"
	RouteCompleteProfile Route = "/complete-profile"
)

// Navigator performs a client-side navigation. A nil session means no
// payload is attached to the transition.
type Navigator interface {
	Navigate(route Route, sess *session.Session)
}

// ForRole returns the entry route for a freshly authenticated session:
// admins land on the admin dashboard, superadmins on their panel, and
// everyone else on the default authenticated route.
func ForRole(role session.Role) Route {
	switch role {
	case session.RoleAdmin:
		return RouteAdmin
	case session.RoleSuperAdmin:
		return RouteSuperAdminPanel
	default:
		return RouteHome
	}
}
