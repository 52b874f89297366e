package httpx

import (
	"net/http"

	"github.com/inkform/gravure-api/internal/domain/model"
	"github.com/inkform/gravure-api/internal/service"
)

// UserHandlers provides HTTP handlers for user directory administration.
type UserHandlers struct {
	Svc *service.DirectoryService
}

// List returns all directory profiles.
// GET /api/users.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Svc.List(r.Context(), GetSessionFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, profiles)
}

// Save applies an administrator's edit to a directory profile.
// PUT /api/users/{uid}.
func (h *UserHandlers) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SaveProfileRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	// The path is authoritative for which profile is being edited.
	req.UID = r.PathValue("uid")

	profile, err := h.Svc.Save(r.Context(), GetSessionFromContext(r.Context()), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}
