package httpx

import (
	"log/slog"
	"net/http"

	"github.com/inkform/gravure-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions  *service.SessionService
	Jobs      *service.JobService
	Uploads   *service.UploadService
	Directory *service.DirectoryService

	// Cookie configuration
	CookieDomain string
	CookieSecure bool

	// MaxUploadBytes bounds multipart upload request bodies.
	MaxUploadBytes int64

	Logger *slog.Logger // Logger for HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Sessions,
		CookieDomain: services.CookieDomain,
		CookieSecure: services.CookieSecure,
		Logger:       logger,
	}
	jobHandlers := &JobHandlers{Svc: services.Jobs, Logger: logger}
	uploadHandlers := &UploadHandlers{Svc: services.Uploads, MaxUploadBytes: services.MaxUploadBytes}
	userHandlers := &UserHandlers{Svc: services.Directory}

	registerAuthRoutes(mux, authHandlers)

	authed := RequireAuth(services.Sessions)
	registerJobRoutes(mux, jobHandlers, authed)
	registerUploadRoutes(mux, uploadHandlers, authed)
	registerUserRoutes(mux, userHandlers, authed)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return Recover(logger)(Logging(logger)(mux))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/status", h.Status)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers, authed func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs", authed(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/jobs", authed(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/jobs/watch", authed(http.HandlerFunc(h.Watch)))
	mux.Handle("GET /api/jobs/{id}", authed(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/jobs/{id}", authed(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/jobs/{id}", authed(http.HandlerFunc(h.Delete)))
	mux.Handle("DELETE /api/jobs/{id}/images", authed(http.HandlerFunc(h.DetachImage)))
}

func registerUploadRoutes(mux *http.ServeMux, h *UploadHandlers, authed func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs/{id}/images", authed(http.HandlerFunc(h.Upload)))
	mux.Handle("GET /api/uploads/{id}", authed(http.HandlerFunc(h.Status)))
}

func registerUserRoutes(mux *http.ServeMux, h *UserHandlers, authed func(http.Handler) http.Handler) {
	mux.Handle("GET /api/users", authed(http.HandlerFunc(h.List)))
	mux.Handle("PUT /api/users/{uid}", authed(http.HandlerFunc(h.Save)))
}
