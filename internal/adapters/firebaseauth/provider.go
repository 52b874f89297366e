// Package firebaseauth implements the identity provider against the
// Firebase Admin SDK.
package firebaseauth

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// Config controls the Firebase identity provider.
type Config struct {
	// CredentialsFile is the path to a service account key file. When
	// empty the SDK falls back to application default credentials.
	CredentialsFile string

	// ProjectID overrides the project inferred from the credentials.
	ProjectID string
}

// Provider implements ports.IdentityProvider against Firebase Auth.
type Provider struct {
	client *fbauth.Client
}

// NewProvider initializes the Firebase Admin SDK and returns a Provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to initialize Firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get Firebase Auth client")
	}
	return &Provider{client: client}, nil
}

// NewProviderWithClient wraps an existing Auth client (useful for tests
// against the emulator).
func NewProviderWithClient(client *fbauth.Client) *Provider {
	return &Provider{client: client}
}

// VerifyToken checks a client-obtained ID token and returns the identity it
// asserts.
func (p *Provider) VerifyToken(ctx context.Context, idToken string) (*domainauth.Identity, error) {
	if idToken == "" {
		return nil, apperrors.Access("ID token is required")
	}

	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrCodeAccess,
			Message: "Invalid or expired ID token",
			Cause:   err,
		}
	}

	return &domainauth.Identity{
		UID:       token.UID,
		Email:     claimString(token.Claims, "email"),
		Name:      claimString(token.Claims, "name"),
		ExpiresAt: time.Unix(token.Expires, 0),
	}, nil
}

// CreateUser provisions a new Firebase account and returns its UID.
func (p *Provider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return "", &apperrors.AppError{
				Code:    apperrors.ErrCodeConflict,
				Message: "An account with this email already exists",
				Field:   "email",
				Cause:   err,
			}
		}
		return "", apperrors.Wrap(err, "failed to create user")
	}
	return record.UID, nil
}

// RevokeSessions invalidates all refresh tokens issued to the UID.
func (p *Provider) RevokeSessions(ctx context.Context, uid string) error {
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return apperrors.Wrap(err, "failed to revoke refresh tokens")
	}
	return nil
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
