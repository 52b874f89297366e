package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkform/gravure-api/internal/core"
	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/ports"
)

// Account status messages shown to users who authenticate successfully but
// may not use the application.
const (
	msgNotActivated = "Your account is not activated. Please contact an administrator."
	msgDeactivated  = "Your account has been deactivated. Please contact an administrator."
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Provider ports.IdentityProvider
	Sessions ports.SessionStore
	Profiles core.ProfileRepository
	// SessionDuration is how long an issued session lives. Defaults to 12h.
	SessionDuration time.Duration
	Logger          *slog.Logger
}

// SessionService orchestrates login, signup, logout, and session resolution.
// A session is only ever issued to an identity whose directory profile exists
// and is active; everyone else gets an account status message instead.
type SessionService struct {
	provider        ports.IdentityProvider
	sessions        ports.SessionStore
	profiles        core.ProfileRepository
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	dur := opts.SessionDuration
	if dur <= 0 {
		dur = 12 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		provider:        opts.Provider,
		sessions:        opts.Sessions,
		profiles:        opts.Profiles,
		sessionDuration: dur,
		logger:          logger.With("component", "session_service"),
	}
}

// LoginResult describes the outcome of a login attempt whose credentials
// were valid. When the account is not usable, Session is nil and
// AccessError carries the message to show; Profile then describes the
// account as the user should see it, synthesized for identities that have
// no directory record yet.
type LoginResult struct {
	Session     *domainauth.Session
	Profile     *model.Profile
	Permissions domainauth.Permissions
	AccessError string
}

// Login verifies a client-obtained ID token, checks the directory profile,
// and issues a server session when the account is active.
func (s *SessionService) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	identity, err := s.provider.VerifyToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUID(ctx, identity.UID)
	switch {
	case apperrors.IsNotFound(err):
		// Authenticated with the identity backend but never provisioned
		// here. Surface the account as an inactive viewer.
		s.revokeIdentity(ctx, identity.UID)
		return &LoginResult{
			Profile: &model.Profile{
				UID:    identity.UID,
				Name:   identity.Name,
				Email:  identity.Email,
				Role:   domainauth.RoleViewer,
				Active: false,
			},
			AccessError: msgNotActivated,
		}, nil
	case err != nil:
		return nil, err
	}

	if !profile.Active {
		s.revokeIdentity(ctx, identity.UID)
		return &LoginResult{
			Profile:     profile,
			AccessError: msgDeactivated,
		}, nil
	}

	session := &domainauth.Session{
		ID:        uuid.NewString(),
		UID:       profile.UID,
		Email:     profile.Email,
		Name:      profileName(profile, identity),
		Role:      profile.Role,
		Active:    profile.Active,
		ExpiresAt: time.Now().Add(s.sessionDuration),
	}
	if saveErr := s.sessions.Put(ctx, session); saveErr != nil {
		return nil, saveErr
	}

	s.logger.InfoContext(ctx, "session issued", "uid", session.UID, "role", session.Role)
	return &LoginResult{
		Session:     session,
		Profile:     profile,
		Permissions: domainauth.PermissionsFor(session),
	}, nil
}

// Signup provisions a new account with the identity backend and creates its
// directory profile. New accounts start as inactive viewers and cannot log
// in until an administrator activates them.
func (s *SessionService) Signup(ctx context.Context, req *model.SignupRequest) (*model.Profile, error) {
	if req == nil {
		return nil, apperrors.Validation("signup request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	uid, err := s.provider.CreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Create(ctx, &model.Profile{
		UID:    uid,
		Name:   req.Name,
		Email:  req.Email,
		Role:   domainauth.RoleViewer,
		Active: false,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "account created but profile could not be saved")
	}

	s.logger.InfoContext(ctx, "account signed up", "uid", uid)
	return profile, nil
}

// Resolve returns the live session for the ID. The directory profile is
// re-read on every call so role changes and deactivations apply to existing
// sessions: a deactivated or deleted profile tears the session down.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.Access("Not signed in")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.Access("Session expired")
	}
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUID(ctx, session.UID)
	if apperrors.IsNotFound(err) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, apperrors.Access(msgNotActivated)
	}
	if err != nil {
		return nil, err
	}
	if !profile.Active {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, apperrors.Access(msgDeactivated)
	}

	if session.Role != profile.Role || session.Name != profile.Name {
		session.Role = profile.Role
		session.Name = profile.Name
		if putErr := s.sessions.Put(ctx, session); putErr != nil {
			s.logger.WarnContext(ctx, "failed to refresh session", "error", putErr)
		}
	}
	return session, nil
}

// Logout removes the session. An empty or unknown ID is not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// LogoutEverywhere removes every session for the UID and revokes the
// identity backend's refresh tokens. Used when an account is deactivated.
func (s *SessionService) LogoutEverywhere(ctx context.Context, uid string) error {
	if err := s.sessions.DeleteByUID(ctx, uid); err != nil {
		return err
	}
	return s.provider.RevokeSessions(ctx, uid)
}

// revokeIdentity invalidates the identity backend's refresh tokens for an
// account that authenticated but may not use the application. The login
// response itself still carries the account status, so a revocation failure
// is logged rather than surfaced.
func (s *SessionService) revokeIdentity(ctx context.Context, uid string) {
	if err := s.provider.RevokeSessions(ctx, uid); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke identity sessions", "uid", uid, "error", err)
	}
}

func profileName(p *model.Profile, id *domainauth.Identity) string {
	if p.Name != "" {
		return p.Name
	}
	return id.Name
}
