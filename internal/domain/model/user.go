package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/inkform/gravure-api/internal/domain/auth"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// Profile is a user directory record, keyed by the identity provider UID.
type Profile struct {
	UID       string    `json:"uid"       db:"uid"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	Role      auth.Role `json:"role"      db:"role"`
	Active    bool      `json:"active"    db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SaveProfileRequest is an administrator's edit of a directory record.
// Role and active state can be changed; UID and email are fixed at signup.
type SaveProfileRequest struct {
	UID    string    `json:"uid"`
	Name   string    `json:"name"`
	Role   auth.Role `json:"role"`
	Active bool      `json:"active"`
}

// Validate checks the edit before it is applied.
func (r *SaveProfileRequest) Validate() error {
	if strings.TrimSpace(r.UID) == "" {
		return apperrors.ValidationField("uid", "uid is required")
	}
	if !r.Role.Valid() {
		return apperrors.ValidationField("role", "unknown role: "+string(r.Role))
	}
	return nil
}

// SignupRequest carries the self-service signup form. New accounts always
// start as inactive viewers and must be activated by an administrator.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the signup form.
func (r *SignupRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.ValidationField("name", "name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperrors.ValidationField("email", "a valid email address is required")
	}
	if len(r.Password) < 6 {
		return apperrors.ValidationField("password", "password must be at least 6 characters")
	}
	return nil
}
