package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	"github.com/inkform/gravure-api/internal/service"
)

const sessionCookieName = "session_id"

var errMissingToken = errors.New("ID token is required")

// SessionServiceInterface defines the session service operations the
// handlers need.
type SessionServiceInterface interface {
	Login(ctx context.Context, idToken string) (*service.LoginResult, error)
	Signup(ctx context.Context, req *model.SignupRequest) (*model.Profile, error)
	Resolve(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          SessionServiceInterface
	CookieDomain string
	CookieSecure bool
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login exchanges a client-obtained ID token for a server session cookie.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_token",
			Err:     errMissingToken,
		})
		return
	}

	result, err := h.Svc.Login(r.Context(), req.IDToken)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	// Valid credentials but an unusable account: no cookie, explain why.
	if result.Session == nil {
		WriteJSON(w, http.StatusForbidden, map[string]any{
			"authenticated": false,
			"error":         result.AccessError,
			"user":          result.Profile,
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          result.Profile,
		"permissions":   result.Permissions,
		"expires_at":    result.Session.ExpiresAt,
	})
}

// Signup provisions a new account from the signup form.
// POST /api/auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Svc.Signup(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, profile)
}

// Logout removes the server session and clears the cookie.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(sessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, sessionCookieName)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Status returns the current authentication status.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.Resolve(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid, expired, or the account was deactivated.
		h.clearCookie(w, r, sessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"uid":   session.UID,
			"name":  session.Name,
			"email": session.Email,
			"role":  session.Role,
		},
		"permissions": domainauth.PermissionsFor(session),
		"expires_at":  session.ExpiresAt,
	})
}

// setSessionCookie issues the session cookie for an authenticated user.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, session *domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.isSecure(r),
		Expires:  session.ExpiresAt,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.isSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) isSecure(r *http.Request) bool {
	return h.CookieSecure || r.TLS != nil ||
		strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
