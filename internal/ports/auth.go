// Package ports defines the interfaces between the services and the
// infrastructure adapters that back them.
package ports

import (
	"context"
	"time"

	"github.com/inkform/gravure-api/internal/domain/auth"
)

// IdentityProvider authenticates users against an external identity backend
// and manages their credentials there.
type IdentityProvider interface {
	// VerifyToken checks a client-obtained ID token and returns the
	// identity it asserts. An invalid or expired token yields an access
	// error.
	VerifyToken(ctx context.Context, idToken string) (*auth.Identity, error)

	// CreateUser provisions a new account with the backend and returns
	// its UID. An already-registered email yields a conflict error.
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)

	// RevokeSessions invalidates all refresh tokens issued to the UID.
	RevokeSessions(ctx context.Context, uid string) error
}

// SessionStore persists server-side sessions keyed by opaque session ID.
type SessionStore interface {
	// Put stores the session until its expiry.
	Put(ctx context.Context, s *auth.Session) error

	// Get returns the session for the ID, or a not-found error when the
	// ID is unknown or the session has expired.
	Get(ctx context.Context, id string) (*auth.Session, error)

	// Delete removes the session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUID removes every session belonging to the UID.
	DeleteByUID(ctx context.Context, uid string) error

	// Touch extends the session's expiry.
	Touch(ctx context.Context, id string, expiresAt time.Time) error
}
