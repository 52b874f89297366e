// Package devauth provides a simple, config-driven identity provider for
// local development. Any non-empty token verifies as the configured identity.
package devauth

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// Config controls the dev identity provider behavior.
type Config struct {
	UID             string
	Email           string
	Name            string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.IdentityProvider for local development.
type Provider struct {
	cfg Config
}

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UID == "" {
		return nil, apperrors.Validation("dev auth: UID is required")
	}
	if cfg.Email == "" {
		return nil, apperrors.Validation("dev auth: Email is required")
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	return &Provider{cfg: cfg}, nil
}

// VerifyToken accepts any non-empty token and returns the configured identity.
func (p *Provider) VerifyToken(_ context.Context, idToken string) (*domainauth.Identity, error) {
	if idToken == "" {
		return nil, apperrors.Access("ID token is required")
	}
	return &domainauth.Identity{
		UID:       p.cfg.UID,
		Email:     p.cfg.Email,
		Name:      p.cfg.Name,
		ExpiresAt: time.Now().Add(p.cfg.SessionDuration),
	}, nil
}

// CreateUser returns a fresh random UID without contacting any backend.
func (p *Provider) CreateUser(_ context.Context, email, _, _ string) (string, error) {
	if email == "" {
		return "", apperrors.ValidationField("email", "email is required")
	}
	return "dev-" + uuid.NewString(), nil
}

// RevokeSessions is a no-op for local development.
func (p *Provider) RevokeSessions(context.Context, string) error {
	return nil
}
