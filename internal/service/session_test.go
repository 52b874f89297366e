package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/mocks"
	mockauth "github.com/inkform/gravure-api/internal/mocks/auth"
)

const (
	testUID   = "uid-123"
	testEmail = "pat@example.com"
)

func testIdentity() *domainauth.Identity {
	return &domainauth.Identity{
		UID:       testUID,
		Email:     testEmail,
		Name:      "Pat Example",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newSessionService(t *testing.T) (*mocks.MockIdentityProvider, *mocks.MockProfileRepository, *mockauth.MemorySessionStore, *SessionService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	provider := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileRepository(ctrl)
	sessions := mockauth.NewMemorySessionStore()

	svc := NewSessionService(SessionServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Profiles: profiles,
	})
	return provider, profiles, sessions, svc
}

func TestSessionService_Login_ActiveProfile(t *testing.T) {
	t.Parallel()
	provider, profiles, sessions, svc := newSessionService(t)
	ctx := context.Background()

	provider.EXPECT().VerifyToken(gomock.Any(), "good-token").Return(testIdentity(), nil)
	profiles.EXPECT().GetByUID(gomock.Any(), testUID).Return(&model.Profile{
		UID:    testUID,
		Name:   "Pat Example",
		Email:  testEmail,
		Role:   domainauth.RoleOperator,
		Active: true,
	}, nil)

	result, err := svc.Login(ctx, "good-token")
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	assert.Empty(t, result.AccessError)
	assert.Equal(t, testUID, result.Session.UID)
	assert.Equal(t, domainauth.RoleOperator, result.Session.Role)
	assert.True(t, result.Permissions.CreateJob)
	assert.False(t, result.Permissions.ManageUsers)
	assert.Equal(t, 1, sessions.Len())

	stored, err := sessions.Get(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, testUID, stored.UID)
}

func TestSessionService_Login_NoProfileIsNotActivated(t *testing.T) {
	t.Parallel()
	provider, profiles, sessions, svc := newSessionService(t)

	provider.EXPECT().VerifyToken(gomock.Any(), "good-token").Return(testIdentity(), nil)
	profiles.EXPECT().GetByUID(gomock.Any(), testUID).
		Return(nil, apperrors.NotFound("Record not found"))
	provider.EXPECT().RevokeSessions(gomock.Any(), testUID).Return(nil)

	result, err := svc.Login(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	assert.Equal(t, msgNotActivated, result.AccessError)
	assert.Equal(t, domainauth.Permissions{}, result.Permissions)
	require.NotNil(t, result.Profile)
	assert.Equal(t, domainauth.RoleViewer, result.Profile.Role)
	assert.False(t, result.Profile.Active)
	assert.Zero(t, sessions.Len(), "no session may be issued")
}

func TestSessionService_Login_InactiveProfileIsDeactivated(t *testing.T) {
	t.Parallel()
	provider, profiles, sessions, svc := newSessionService(t)

	provider.EXPECT().VerifyToken(gomock.Any(), "good-token").Return(testIdentity(), nil)
	profiles.EXPECT().GetByUID(gomock.Any(), testUID).Return(&model.Profile{
		UID:    testUID,
		Email:  testEmail,
		Role:   domainauth.RoleAdmin,
		Active: false,
	}, nil)
	provider.EXPECT().RevokeSessions(gomock.Any(), testUID).Return(nil)

	result, err := svc.Login(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	assert.Equal(t, msgDeactivated, result.AccessError)
	// Role grants nothing while the account is inactive.
	assert.Equal(t, domainauth.Permissions{}, result.Permissions)
	assert.Zero(t, sessions.Len())
}

func TestSessionService_Login_RevokeFailureStillReportsStatus(t *testing.T) {
	t.Parallel()
	provider, profiles, sessions, svc := newSessionService(t)

	provider.EXPECT().VerifyToken(gomock.Any(), "good-token").Return(testIdentity(), nil)
	profiles.EXPECT().GetByUID(gomock.Any(), testUID).Return(&model.Profile{
		UID: testUID, Email: testEmail, Role: domainauth.RoleViewer, Active: false,
	}, nil)
	provider.EXPECT().RevokeSessions(gomock.Any(), testUID).
		Return(apperrors.Internal("identity backend unavailable"))

	result, err := svc.Login(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	assert.Equal(t, msgDeactivated, result.AccessError)
	assert.Zero(t, sessions.Len())
}

func TestSessionService_Login_BadToken(t *testing.T) {
	t.Parallel()
	provider, _, _, svc := newSessionService(t)

	provider.EXPECT().VerifyToken(gomock.Any(), "bad-token").
		Return(nil, apperrors.Access("Invalid or expired ID token"))

	_, err := svc.Login(context.Background(), "bad-token")
	assert.True(t, apperrors.IsAccess(err))
}

func TestSessionService_Signup_CreatesInactiveViewer(t *testing.T) {
	t.Parallel()
	provider, profiles, _, svc := newSessionService(t)

	provider.EXPECT().CreateUser(gomock.Any(), testEmail, "secret99", "Pat Example").
		Return(testUID, nil)
	profiles.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *model.Profile) (*model.Profile, error) {
			assert.Equal(t, testUID, p.UID)
			assert.Equal(t, domainauth.RoleViewer, p.Role)
			assert.False(t, p.Active)
			out := *p
			out.CreatedAt = time.Now()
			return &out, nil
		})

	profile, err := svc.Signup(context.Background(), &model.SignupRequest{
		Name:     "Pat Example",
		Email:    testEmail,
		Password: "secret99",
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleViewer, profile.Role)
	assert.False(t, profile.Active)
}

func TestSessionService_Signup_Validation(t *testing.T) {
	t.Parallel()
	_, _, _, svc := newSessionService(t)

	for _, tc := range []struct {
		name string
		req  model.SignupRequest
	}{
		{"missing name", model.SignupRequest{Email: testEmail, Password: "secret99"}},
		{"bad email", model.SignupRequest{Name: "Pat", Email: "not-an-email", Password: "secret99"}},
		{"short password", model.SignupRequest{Name: "Pat", Email: testEmail, Password: "abc"}},
	} {
		req := tc.req
		_, err := svc.Signup(context.Background(), &req)
		assert.True(t, apperrors.IsValidation(err), tc.name)
	}
}

func TestSessionService_Resolve_RefreshesRoleFromProfile(t *testing.T) {
	t.Parallel()
	_, profiles, sessions, svc := newSessionService(t)
	ctx := context.Background()

	sess := &domainauth.Session{
		ID: "sess-1", UID: testUID, Email: testEmail, Name: "Pat Example",
		Role: domainauth.RoleViewer, Active: true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, sessions.Put(ctx, sess))

	profiles.EXPECT().GetByUID(gomock.Any(), testUID).Return(&model.Profile{
		UID: testUID, Name: "Pat Example", Email: testEmail,
		Role: domainauth.RoleAdmin, Active: true,
	}, nil)

	resolved, err := svc.Resolve(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, resolved.Role)
}

func TestSessionService_Resolve_DeactivatedProfileTearsDownSession(t *testing.T) {
	t.Parallel()
	_, profiles, sessions, svc := newSessionService(t)
	ctx := context.Background()

	sess := &domainauth.Session{
		ID: "sess-1", UID: testUID, Role: domainauth.RoleOperator, Active: true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, sessions.Put(ctx, sess))

	profiles.EXPECT().GetByUID(gomock.Any(), testUID).Return(&model.Profile{
		UID: testUID, Role: domainauth.RoleOperator, Active: false,
	}, nil)

	_, err := svc.Resolve(ctx, "sess-1")
	assert.True(t, apperrors.IsAccess(err))
	assert.Zero(t, sessions.Len(), "session must be removed")
}

func TestSessionService_Resolve_UnknownSession(t *testing.T) {
	t.Parallel()
	_, _, _, svc := newSessionService(t)

	_, err := svc.Resolve(context.Background(), "no-such-session")
	assert.True(t, apperrors.IsAccess(err))

	_, err = svc.Resolve(context.Background(), "")
	assert.True(t, apperrors.IsAccess(err))
}

func TestSessionService_Logout(t *testing.T) {
	t.Parallel()
	_, _, sessions, svc := newSessionService(t)
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, &domainauth.Session{
		ID: "sess-1", UID: testUID, Active: true, ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, svc.Logout(ctx, "sess-1"))
	assert.Zero(t, sessions.Len())

	// Logging out twice or with no cookie is fine.
	require.NoError(t, svc.Logout(ctx, "sess-1"))
	require.NoError(t, svc.Logout(ctx, ""))
}
