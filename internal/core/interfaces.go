package core

import (
	"context"
	"time"

	"github.com/inkform/gravure-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// CreateJobParams groups parameters for JobRepository.Create.
type CreateJobParams struct {
	Fields       *model.JobFields
	CreatedByUID string
}

// JobRepository defines the interface for job record data operations.
type JobRepository interface {
	Create(ctx context.Context, params CreateJobParams) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// List returns all jobs ordered by creation time, newest first.
	List(ctx context.Context) ([]*model.Job, error)
	Update(ctx context.Context, id string, patch *model.JobPatch) (*model.Job, error)
	Delete(ctx context.Context, id string) (bool, error)

	// AttachImage appends the URL to the job's image list.
	AttachImage(ctx context.Context, id, url string) (*model.Job, error)
	// DetachImage removes the URL from the job's image list and, in the
	// same transaction, records the blob path for later cleanup.
	DetachImage(ctx context.Context, params DetachImageParams) (*model.Job, error)

	// WaitForChange blocks until any job row changes, the timeout
	// elapses, or the context is done. It reports whether a change
	// notification arrived.
	WaitForChange(ctx context.Context, timeout time.Duration) (bool, error)
}

// DetachImageParams groups parameters for JobRepository.DetachImage.
type DetachImageParams struct {
	JobID string
	URL   string
	// BlobPath is the storage path behind the URL, empty when the URL
	// does not map back to managed storage.
	BlobPath string
}

// ProfileRepository defines the interface for user directory data operations.
type ProfileRepository interface {
	Create(ctx context.Context, p *model.Profile) (*model.Profile, error)
	GetByUID(ctx context.Context, uid string) (*model.Profile, error)
	// List returns all profiles ordered by name.
	List(ctx context.Context) ([]*model.Profile, error)
	Save(ctx context.Context, req *model.SaveProfileRequest) (*model.Profile, error)
}

// CleanupTask is a pending blob deletion recorded when an image was detached.
type CleanupTask struct {
	ID        string    `db:"id"`
	BlobPath  string    `db:"blob_path"`
	Attempts  int       `db:"attempts"`
	CreatedAt time.Time `db:"created_at"`
}

// CleanupQueue defines the interface for the blob cleanup intent log.
type CleanupQueue interface {
	// ClaimDue returns up to limit tasks ready for an attempt, bumping
	// their attempt count and pushing their next-due time out so
	// concurrent sweepers do not pick the same tasks.
	ClaimDue(ctx context.Context, limit int, retryAfter time.Duration) ([]*CleanupTask, error)
	// Complete removes a finished task.
	Complete(ctx context.Context, id string) error
	// DeleteExhausted drops tasks that have exceeded maxAttempts and
	// returns how many were dropped.
	DeleteExhausted(ctx context.Context, maxAttempts int) (int64, error)
}
