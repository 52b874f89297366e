package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkform/gravure-api/internal/core"
	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/ports"
)

// UploadState is the lifecycle state of an upload task.
type UploadState string

const (
	UploadStateIdle      UploadState = "idle"
	UploadStateUploading UploadState = "uploading"
	UploadStateSucceeded UploadState = "succeeded"
	UploadStateFailed    UploadState = "failed"
)

// UploadStatus is a point-in-time snapshot of an upload task. Progress is a
// whole percentage that never decreases and reaches 100 exactly when the
// transfer succeeds.
type UploadStatus struct {
	ID       string      `json:"id"`
	JobID    string      `json:"jobId"`
	Filename string      `json:"filename"`
	State    UploadState `json:"state"`
	Progress int         `json:"progress"`
	URL      string      `json:"url,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// UploadServiceOptions groups dependencies for UploadService.
type UploadServiceOptions struct {
	Jobs  core.JobRepository
	Blobs ports.BlobStore
	// RetainFinished is how long finished task statuses stay queryable.
	// Defaults to 10 minutes.
	RetainFinished time.Duration
	Logger         *slog.Logger
}

// UploadService streams images into blob storage and attaches the resulting
// URLs to jobs. Task status lives in memory; clients poll it by task ID
// while the transfer runs.
type UploadService struct {
	jobs           core.JobRepository
	blobs          ports.BlobStore
	retainFinished time.Duration
	logger         *slog.Logger
	now            func() time.Time

	mu    sync.RWMutex
	tasks map[string]*uploadTask
}

type uploadTask struct {
	status     UploadStatus
	finishedAt time.Time
}

// NewUploadService constructs a new UploadService.
func NewUploadService(opts UploadServiceOptions) (*UploadService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Blobs == nil {
		return nil, errors.New("BlobStore is required")
	}
	retain := opts.RetainFinished
	if retain <= 0 {
		retain = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		jobs:           opts.Jobs,
		blobs:          opts.Blobs,
		retainFinished: retain,
		logger:         logger.With("component", "upload_service"),
		now:            time.Now,
		tasks:          make(map[string]*uploadTask),
	}, nil
}

// MustNewUploadService constructs a new UploadService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewUploadService(opts UploadServiceOptions) *UploadService {
	svc, err := NewUploadService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create UploadService: %v", err))
	}
	return svc
}

// StartUploadInput groups parameters for Upload.
type StartUploadInput struct {
	JobID       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload streams the file to blob storage and attaches its URL to the job.
// It blocks until the transfer finishes; the task status is visible through
// Status for the whole run and for a retention window afterwards. A failed
// transfer leaves the job record untouched.
func (s *UploadService) Upload(
	ctx context.Context,
	sess *domainauth.Session,
	input StartUploadInput,
) (*UploadStatus, error) {
	if err := requirePermission(sess, domainauth.CanEditJob); err != nil {
		return nil, err
	}
	if input.JobID == "" {
		return nil, apperrors.Validation("job ID is required")
	}
	if input.Filename == "" {
		return nil, apperrors.ValidationField("filename", "filename is required")
	}
	if input.Size <= 0 {
		return nil, apperrors.ValidationField("file", "file is empty")
	}
	if input.Body == nil {
		return nil, apperrors.ValidationField("file", "file content is required")
	}

	// The job must exist before bytes start flowing.
	if _, err := s.jobs.GetByID(ctx, input.JobID); err != nil {
		return nil, err
	}

	taskID := uuid.NewString()
	s.setStatus(taskID, UploadStatus{
		ID:       taskID,
		JobID:    input.JobID,
		Filename: input.Filename,
		State:    UploadStateUploading,
	}, false)

	path := blobPath(input.JobID, input.Filename, s.now())
	url, err := s.blobs.Put(ctx, path, input.ContentType, input.Size, input.Body,
		func(transferred, total int64) {
			s.advanceProgress(taskID, transferred, total)
		})
	if err != nil {
		s.finishTask(taskID, func(st *UploadStatus) {
			st.State = UploadStateFailed
			st.Error = "Upload failed. Please try again."
		})
		s.logger.WarnContext(ctx, "upload failed",
			"task_id", taskID, "job_id", input.JobID, "error", err)
		return nil, err
	}

	if _, err := s.jobs.AttachImage(ctx, input.JobID, url); err != nil {
		// The blob is orphaned; remove it rather than leaving an
		// unreferenced object behind.
		if delErr := s.blobs.Delete(ctx, path); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned blob",
				"blob_path", path, "error", delErr)
		}
		s.finishTask(taskID, func(st *UploadStatus) {
			st.State = UploadStateFailed
			st.Error = "Upload failed. Please try again."
		})
		return nil, err
	}

	status := s.finishTask(taskID, func(st *UploadStatus) {
		st.State = UploadStateSucceeded
		st.Progress = 100
		st.URL = url
	})
	s.logger.InfoContext(ctx, "upload finished",
		"task_id", taskID, "job_id", input.JobID, "url", url)
	return status, nil
}

// Status returns the snapshot for a task. Finished tasks stay queryable for
// the retention window.
func (s *UploadService) Status(_ context.Context, sess *domainauth.Session, taskID string) (*UploadStatus, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	s.pruneFinished()

	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, apperrors.NotFound("Upload task not found")
	}
	st := task.status
	return &st, nil
}

// advanceProgress moves a task's progress forward. Progress only ever
// increases, and stays below 100 until the task is marked succeeded.
func (s *UploadService) advanceProgress(taskID string, transferred, total int64) {
	if total <= 0 {
		return
	}
	pct := int((transferred*100 + total/2) / total)
	if pct > 99 {
		pct = 99
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || task.status.State != UploadStateUploading {
		return
	}
	if pct > task.status.Progress {
		task.status.Progress = pct
	}
}

func (s *UploadService) setStatus(taskID string, status UploadStatus, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &uploadTask{status: status}
	if finished {
		task.finishedAt = s.now()
	}
	s.tasks[taskID] = task
}

func (s *UploadService) finishTask(taskID string, mut func(*UploadStatus)) *UploadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	mut(&task.status)
	task.finishedAt = s.now()
	st := task.status
	return &st
}

// pruneFinished drops finished tasks older than the retention window.
func (s *UploadService) pruneFinished() {
	cutoff := s.now().Add(-s.retainFinished)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		if !task.finishedAt.IsZero() && task.finishedAt.Before(cutoff) {
			delete(s.tasks, id)
		}
	}
}

// blobPath builds the storage path for an uploaded image. The timestamp
// prefix keeps repeated uploads of the same filename distinct.
func blobPath(jobID, filename string, now time.Time) string {
	return fmt.Sprintf("jobs/%s/%d-%s", jobID, now.UnixMilli(), sanitizeFilename(filename))
}

// sanitizeFilename reduces a client-supplied filename to a safe object name.
func sanitizeFilename(name string) string {
	// Drop any path components the client sent along.
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
