package httpx

import (
	"errors"
	"net/http"

	"github.com/inkform/gravure-api/internal/service"
)

// UploadHandlers provides HTTP handlers for image upload operations.
type UploadHandlers struct {
	Svc *service.UploadService
	// MaxUploadBytes is the largest accepted request body.
	MaxUploadBytes int64
}

// Upload streams a multipart image upload into blob storage and attaches it
// to the job. The response carries the finished task status including the
// public image URL.
// POST /api/jobs/{id}/images.
func (h *UploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_upload",
			Err:     errors.New("multipart field 'file' is required"),
		})
		return
	}
	defer func() { _ = file.Close() }()

	status, err := h.Svc.Upload(r.Context(), GetSessionFromContext(r.Context()), service.StartUploadInput{
		JobID:       r.PathValue("id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// Status returns the state of an upload task. Clients poll this while a
// transfer runs and for a short window afterwards.
// GET /api/uploads/{id}.
func (h *UploadHandlers) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.Svc.Status(r.Context(), GetSessionFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}
