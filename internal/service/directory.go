package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkform/gravure-api/internal/core"
	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/ports"
)

// DirectoryServiceOptions groups dependencies for DirectoryService.
type DirectoryServiceOptions struct {
	Profiles core.ProfileRepository
	Sessions ports.SessionStore
	Provider ports.IdentityProvider
	Logger   *slog.Logger
}

// DirectoryService manages the user directory. The manage-users permission
// is checked on the server for every call, not just hidden in the UI.
type DirectoryService struct {
	profiles core.ProfileRepository
	sessions ports.SessionStore
	provider ports.IdentityProvider
	logger   *slog.Logger
}

// NewDirectoryService constructs a new DirectoryService.
func NewDirectoryService(opts DirectoryServiceOptions) (*DirectoryService, error) {
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{
		profiles: opts.Profiles,
		sessions: opts.Sessions,
		provider: opts.Provider,
		logger:   logger.With("component", "directory_service"),
	}, nil
}

// MustNewDirectoryService constructs a new DirectoryService and panics on
// error. Use this when you're certain the options are valid (e.g., in main.go).
func MustNewDirectoryService(opts DirectoryServiceOptions) *DirectoryService {
	svc, err := NewDirectoryService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create DirectoryService: %v", err))
	}
	return svc
}

// List returns all directory profiles ordered by name.
func (s *DirectoryService) List(ctx context.Context, sess *domainauth.Session) ([]*model.Profile, error) {
	if err := requirePermission(sess, domainauth.CanManageUsers); err != nil {
		return nil, err
	}
	return s.profiles.List(ctx)
}

// Save applies an administrator's edit to a profile. Deactivating an
// account also tears down its sessions and revokes its refresh tokens, so
// the change takes effect immediately rather than at next login.
func (s *DirectoryService) Save(
	ctx context.Context,
	sess *domainauth.Session,
	req *model.SaveProfileRequest,
) (*model.Profile, error) {
	if err := requirePermission(sess, domainauth.CanManageUsers); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("save profile request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.UID == sess.UID && !req.Active {
		return nil, apperrors.ValidationField("active", "you cannot deactivate your own account")
	}

	before, err := s.profiles.GetByUID(ctx, req.UID)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Save(ctx, req)
	if err != nil {
		return nil, err
	}

	if before.Active && !profile.Active {
		if err := s.revokeAccess(ctx, profile.UID); err != nil {
			s.logger.WarnContext(ctx, "failed to revoke access for deactivated account",
				"uid", profile.UID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "profile saved",
		"uid", profile.UID, "role", profile.Role, "active", profile.Active, "by", sess.UID)
	return profile, nil
}

func (s *DirectoryService) revokeAccess(ctx context.Context, uid string) error {
	if s.sessions != nil {
		if err := s.sessions.DeleteByUID(ctx, uid); err != nil {
			return err
		}
	}
	if s.provider != nil {
		return s.provider.RevokeSessions(ctx, uid)
	}
	return nil
}
