package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inkform/gravure-api/internal/core"
	"github.com/inkform/gravure-api/internal/data/pgxutil"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// CleanupRepo provides database operations for the blob cleanup intent log.
// Rows are written transactionally when an image is detached from a job; the
// sweeper claims them and deletes the underlying blobs.
type CleanupRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCleanupRepo creates a new CleanupRepo with real time provider.
func NewCleanupRepo(db *sql.DB) *CleanupRepo {
	return &CleanupRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewCleanupRepoWithTimeProvider creates a new CleanupRepo with a custom time provider (useful for tests).
func NewCleanupRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *CleanupRepo {
	return &CleanupRepo{DB: db, timeProvider: tp}
}

// ClaimDue returns up to limit tasks that are due for an attempt. Claimed
// rows have their attempt count bumped and their next-due time pushed out by
// retryAfter, and are locked with SKIP LOCKED so concurrent sweepers do not
// claim the same tasks.
func (r *CleanupRepo) ClaimDue(
	ctx context.Context,
	limit int,
	retryAfter time.Duration,
) ([]*core.CleanupTask, error) {
	if limit <= 0 {
		limit = 50
	}
	now := r.timeProvider.Now().UTC()

	var rowsOut []core.CleanupTask
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE blob_cleanup
			SET attempts = attempts + 1, next_attempt_at = $2
			WHERE id IN (
				SELECT id FROM blob_cleanup
				WHERE next_attempt_at <= $1
				ORDER BY next_attempt_at
				LIMIT $3
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, blob_path, attempts, created_at`,
			now, now.Add(retryAfter), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[core.CleanupTask])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to claim cleanup tasks: %w", apperrors.MapDBError(err))
	}

	res := make([]*core.CleanupTask, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Complete removes a finished task.
func (r *CleanupRepo) Complete(ctx context.Context, id string) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM blob_cleanup WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to complete cleanup task: %w", apperrors.MapDBError(err))
	}
	return nil
}

// DeleteExhausted drops tasks whose attempt count exceeds maxAttempts and
// returns how many were dropped.
func (r *CleanupRepo) DeleteExhausted(ctx context.Context, maxAttempts int) (int64, error) {
	var dropped int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM blob_cleanup WHERE attempts > $1`, maxAttempts)
		if err != nil {
			return err
		}
		dropped = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to drop exhausted cleanup tasks: %w", apperrors.MapDBError(err))
	}
	return dropped, nil
}
