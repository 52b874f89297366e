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
	"github.com/inkform/gravure-api/internal/watch"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo     core.JobRepository
	Blobs    ports.BlobStore
	Notifier watch.Notifier
	// Evaluator handles list filter expressions. Defaults to the library
	// evaluator when nil.
	Evaluator JMESPathEvaluator
	Logger    *slog.Logger
}

// JobService encapsulates business logic for job records. Every operation
// takes the caller's session and enforces the access policy before touching
// the repository.
type JobService struct {
	repo      core.JobRepository
	blobs     ports.BlobStore
	notifier  watch.Notifier
	evaluator JMESPathEvaluator
	logger    *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = jmespathLibEvaluator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		repo:      opts.Repo,
		blobs:     opts.Blobs,
		notifier:  opts.Notifier,
		evaluator: evaluator,
		logger:    logger.With("component", "job_service"),
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// StopAllListeners closes every open watch subscription. Called during
// shutdown so streaming handlers unblock before the server drains.
func (s *JobService) StopAllListeners() {
	if s.notifier != nil {
		s.notifier.StopAll()
	}
}

// Create validates and stores a new job record. Requires the create
// permission.
func (s *JobService) Create(
	ctx context.Context,
	sess *domainauth.Session,
	req *model.CreateJobRequest,
) (*model.Job, error) {
	if err := requirePermission(sess, domainauth.CanCreateJob); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	fields, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	job, err := s.repo.Create(ctx, core.CreateJobParams{
		Fields:       fields,
		CreatedByUID: sess.UID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job created", "job_id", job.ID, "job_number", job.JobNumber, "uid", sess.UID)
	return job, nil
}

// Get returns a single job. Any signed-in user may read jobs.
func (s *JobService) Get(ctx context.Context, sess *domainauth.Session, id string) (*model.Job, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.Validation("job ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns all jobs, newest first, optionally narrowed by a filter
// expression over the jobs' wire fields.
func (s *JobService) List(ctx context.Context, sess *domainauth.Session, filter string) ([]*model.Job, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterJobs(s.evaluator, jobs, filter)
}

// Update applies a partial edit to a job. Requires the edit permission.
func (s *JobService) Update(
	ctx context.Context,
	sess *domainauth.Session,
	id string,
	req *model.UpdateJobRequest,
) (*model.Job, error) {
	if err := requirePermission(sess, domainauth.CanEditJob); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.Validation("job ID is required")
	}
	if req == nil {
		return nil, apperrors.Validation("update job request is required")
	}
	patch, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	job, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job updated", "job_id", id, "uid", sess.UID)
	return job, nil
}

// Delete removes a job record. Requires the edit permission. The job's
// images are left to the cleanup sweep via their recorded paths.
func (s *JobService) Delete(ctx context.Context, sess *domainauth.Session, id string) error {
	if err := requirePermission(sess, domainauth.CanEditJob); err != nil {
		return err
	}
	if id == "" {
		return apperrors.Validation("job ID is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFound("Record not found")
	}
	s.logger.InfoContext(ctx, "job deleted", "job_id", id, "uid", sess.UID)
	return nil
}

// AttachImage appends an uploaded image URL to the job. Requires the edit
// permission.
func (s *JobService) AttachImage(
	ctx context.Context,
	sess *domainauth.Session,
	jobID, url string,
) (*model.Job, error) {
	if err := requirePermission(sess, domainauth.CanEditJob); err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, apperrors.Validation("job ID is required")
	}
	if url == "" {
		return nil, apperrors.ValidationField("url", "image URL is required")
	}
	return s.repo.AttachImage(ctx, jobID, url)
}

// DetachImage removes an image URL from the job. The job record loses the
// reference immediately; the blob itself is deleted later by the sweeper,
// so a crash can never leave a job pointing at a deleted blob. Requires the
// delete-image permission.
func (s *JobService) DetachImage(
	ctx context.Context,
	sess *domainauth.Session,
	jobID, url string,
) (*model.Job, error) {
	if err := requirePermission(sess, domainauth.CanDeleteImage); err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, apperrors.Validation("job ID is required")
	}
	if url == "" {
		return nil, apperrors.ValidationField("url", "image URL is required")
	}

	var blobPath string
	if s.blobs != nil {
		if path, ok := s.blobs.PathFromURL(url); ok {
			blobPath = path
		}
	}
	job, err := s.repo.DetachImage(ctx, core.DetachImageParams{
		JobID:    jobID,
		URL:      url,
		BlobPath: blobPath,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "image detached", "job_id", jobID, "uid", sess.UID)
	return job, nil
}

// Watch streams the job list to the caller. The returned channel first
// carries the current snapshot, then a fresh full snapshot after every
// change; consumers replace their state wholesale rather than applying
// diffs. The channel closes when ctx ends or stop is called.
func (s *JobService) Watch(
	ctx context.Context,
	sess *domainauth.Session,
	filter string,
) (<-chan []*model.Job, func(), error) {
	if err := requireSession(sess); err != nil {
		return nil, nil, err
	}
	if s.notifier == nil {
		return nil, nil, errors.New("notifier is required for watch")
	}
	// Reject bad expressions before the stream starts.
	if err := s.evaluator.Validate(filter); err != nil {
		return nil, nil, apperrors.ValidationField("filter", "invalid filter expression: "+err.Error())
	}

	unsub, signals := s.notifier.Subscribe()
	out := make(chan []*model.Job, 1)

	go func() {
		defer close(out)
		defer unsub()

		send := func() bool {
			jobs, err := s.List(ctx, sess, filter)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.WarnContext(ctx, "watch snapshot failed", "error", err)
				}
				return ctx.Err() == nil
			}
			select {
			case out <- jobs:
			case <-ctx.Done():
				return false
			}
			return true
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				if !send() {
					return
				}
			}
		}
	}()

	return out, unsub, nil
}

// requireSession rejects callers with no usable session.
func requireSession(sess *domainauth.Session) error {
	if sess == nil || !sess.Active {
		return apperrors.Access("Not signed in")
	}
	return nil
}

// requirePermission rejects callers whose role does not grant the
// permission selected by pick.
func requirePermission(sess *domainauth.Session, pick func(domainauth.Permissions) bool) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if !pick(domainauth.PermissionsFor(sess)) {
		return apperrors.Permission("You do not have permission to perform this action")
	}
	return nil
}
