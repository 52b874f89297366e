// Package httpx provides HTTP handlers and utilities for the gravure job tracking API.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkform/gravure-api/internal/domain/model"
	"github.com/inkform/gravure-api/internal/service"
)

// JobHandlers provides HTTP handlers for job record operations.
type JobHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

func (h *JobHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Create handles HTTP requests to create a new job record.
// POST /api/jobs.
func (h *JobHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Create(r.Context(), GetSessionFromContext(r.Context()), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, job)
}

// List handles HTTP requests to list job records, newest first.
// GET /api/jobs?filter=<jmespath>.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Svc.List(r.Context(), GetSessionFromContext(r.Context()), r.URL.Query().Get("filter"))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, jobs)
}

// Get handles HTTP requests to fetch a single job record.
// GET /api/jobs/{id}.
func (h *JobHandlers) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Get(r.Context(), GetSessionFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// Update handles HTTP requests to partially edit a job record.
// PATCH /api/jobs/{id}.
func (h *JobHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Update(r.Context(), GetSessionFromContext(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// Delete handles HTTP requests to remove a job record.
// DELETE /api/jobs/{id}.
func (h *JobHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), GetSessionFromContext(r.Context()), r.PathValue("id")); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DetachImage handles HTTP requests to remove an image from a job record.
// DELETE /api/jobs/{id}/images.
func (h *JobHandlers) DetachImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.DetachImage(r.Context(), GetSessionFromContext(r.Context()), r.PathValue("id"), req.URL)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// Watch streams job list snapshots over server-sent events. The first event
// is the current list; every subsequent event is a fresh full snapshot after
// a change. Clients replace their state with each event.
// GET /api/jobs/watch?filter=<jmespath>.
func (h *JobHandlers) Watch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "streaming_unsupported",
			Err:     errors.New("streaming is not supported"),
		})
		return
	}

	snapshots, stop, err := h.Svc.Watch(
		r.Context(),
		GetSessionFromContext(r.Context()),
		r.URL.Query().Get("filter"),
	)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for jobs := range snapshots {
		payload, err := json.Marshal(jobs)
		if err != nil {
			h.logger().WarnContext(r.Context(), "failed to encode watch snapshot", "error", err)
			return
		}
		if _, err := w.Write([]byte("event: jobs\ndata: ")); err != nil {
			return
		}
		if _, err := w.Write(payload); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
