package auth

// Package auth contains domain-level types for authentication, sessions, and
// the access policy. It is pure and free of framework/adapter concerns.

import "time"

// Role represents a user's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// Identity represents the authenticated principal returned by the identity
// provider. Adapters map provider-specific token claims into this shape.
type Identity struct {
	UID       string // stable user identifier (provider uid)
	Email     string
	Name      string // display name claim, may be empty
	ExpiresAt time.Time // absolute expiry from the provider token
}

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier.
type Session struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
}
