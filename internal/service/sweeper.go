package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/inkform/gravure-api/config"
	"github.com/inkform/gravure-api/internal/core"
	"github.com/inkform/gravure-api/internal/ports"
)

// sweepConcurrency bounds parallel blob deletes within one sweep pass.
const sweepConcurrency = 4

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Queue  core.CleanupQueue  // Required: cleanup intent log
	Blobs  ports.BlobStore    // Required: blob store to delete from
	Config config.SweeperConfig
	Logger *slog.Logger // Optional: structured logger
}

// SweeperService deletes blobs whose images were detached from jobs. The
// detach transaction records an intent row; the sweeper deletes the blob and
// then the row, so a crash between the two only ever leaves the blob to be
// retried, never a dangling reference.
type SweeperService struct {
	queue  core.CleanupQueue
	blobs  ports.BlobStore
	config config.SweeperConfig
	logger *slog.Logger
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Queue == nil {
		return nil, errors.New("CleanupQueue is required")
	}
	if opts.Blobs == nil {
		return nil, errors.New("BlobStore is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper_service")
	}

	cfg := opts.Config
	cfg.Sanitize()

	return &SweeperService{
		queue:  opts.Queue,
		blobs:  opts.Blobs,
		config: cfg,
		logger: logger,
	}, nil
}

// MustNewSweeperService constructs a new SweeperService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewSweeperService(opts SweeperServiceOptions) *SweeperService {
	svc, err := NewSweeperService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create SweeperService: %v", err))
	}
	return svc
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)
	}

	// Jitter spreads multiple instances so they do not all claim at once.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.Sweep(ctx); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "initial sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && s.logger != nil {
				s.logger.ErrorContext(ctx, "sweep failed", "error", err)
			}
		}
	}
}

// Sweep performs one pass over the cleanup log: claim due tasks, delete
// their blobs, and remove finished tasks. Tasks whose deletes keep failing
// are dropped once they exceed the attempt budget.
func (s *SweeperService) Sweep(ctx context.Context) error {
	tasks, err := s.queue.ClaimDue(ctx, s.config.BatchSize, s.config.RetryAfter)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, task := range tasks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := s.blobs.Delete(gctx, task.BlobPath); err != nil {
				if s.logger != nil {
					s.logger.WarnContext(gctx, "blob delete failed, will retry",
						"blob_path", task.BlobPath,
						"attempts", task.Attempts,
						"error", err)
				}
				return nil
			}
			if err := s.queue.Complete(gctx, task.ID); err != nil {
				if s.logger != nil {
					s.logger.WarnContext(gctx, "failed to complete cleanup task",
						"blob_path", task.BlobPath, "error", err)
				}
				return nil
			}
			if s.logger != nil {
				s.logger.InfoContext(gctx, "deleted detached blob", "blob_path", task.BlobPath)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dropped, err := s.queue.DeleteExhausted(ctx, s.config.MaxAttempts)
	if err != nil {
		return err
	}
	if dropped > 0 && s.logger != nil {
		s.logger.WarnContext(ctx, "dropped cleanup tasks after repeated failures", "count", dropped)
	}
	return nil
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
