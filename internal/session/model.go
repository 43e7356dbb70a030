package session

import (
	"fmt"
	"time"
)

// Role is the backend-assigned role that gates route access. No other
// session attribute may substitute for it.
type Role string

const (
	RoleStudent    Role = "student"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole validates a raw role string from the backend.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleAdmin, RoleSuperAdmin:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// CanManageEvents is the single admin/superadmin capability boundary.
// Call sites must use this predicate rather than comparing roles inline.
func (r Role) CanManageEvents() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsSuperAdmin reports whether the role grants superadmin-only screens.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// Session is the client's cached record of the authenticated user, as
// returned by the backend gateway. The backend owns the authoritative copy;
// this struct is only the in-browser mirror of it.
type Session struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Picture    string    `json:"picture,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	College    string    `json:"college,omitempty"`
	Department string    `json:"department,omitempty"`
	Year       string    `json:"year,omitempty"`
	PRN        string    `json:"prn,omitempty"`
	Role       Role      `json:"role"`
	IsBlocked  bool      `json:"is_blocked,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Validate checks that a decoded record has the shape of a usable session.
func (s Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("session missing user_id")
	}
	if s.Email == "" {
		return fmt.Errorf("session missing email")
	}
	if !s.Role.Valid() {
		return fmt.Errorf("session has unknown role %q", s.Role)
	}
	return nil
}

// ProfileComplete reports whether the registration-required profile fields
// have been filled in. Incomplete profiles are sent to the complete-profile
// route after login.
func (s Session) ProfileComplete() bool {
	return s.Phone != "" && s.College != "" && s.PRN != ""
}
