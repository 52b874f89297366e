package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/inkform/gravure-api/internal/core"
	"github.com/inkform/gravure-api/internal/data/pgxutil"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// jobsChangedChannel is the NOTIFY channel raised by the jobs table trigger
// on every insert, update, or delete.
const jobsChangedChannel = "jobs_changed"

const jobColumns = `
	id, job_number, customer_name, brand_name, design_name, cylinder_numbers,
	colour_names, notes, web_width_mm, repeat_length_mm, gusset_mm,
	number_of_colours, materials, image_urls, created_at, created_by_uid, updated_at`

// JobRepo provides database operations for job records.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo with real time provider.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewJobRepoWithTimeProvider creates a new JobRepo with a custom time provider (useful for tests).
func NewJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: tp}
}

// Create inserts a new job record.
func (r *JobRepo) Create(ctx context.Context, params core.CreateJobParams) (*model.Job, error) {
	if params.Fields == nil {
		return nil, apperrors.Validation("job fields are required")
	}
	materials, err := marshalMaterials(params.Fields.Materials)
	if err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Job
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO jobs (
				job_number, customer_name, brand_name, design_name, cylinder_numbers,
				colour_names, notes, web_width_mm, repeat_length_mm, gusset_mm,
				number_of_colours, materials, image_urls, created_at, created_by_uid, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, '{}', $13, $14, $13
			) RETURNING `+jobColumns,
			params.Fields.JobNumber,
			params.Fields.CustomerName,
			params.Fields.BrandName,
			params.Fields.DesignName,
			params.Fields.CylinderNumbers,
			params.Fields.ColourNames,
			params.Fields.Notes,
			params.Fields.WebWidthMm,
			params.Fields.RepeatLengthMm,
			params.Fields.GussetMm,
			params.Fields.NumberOfColours,
			materials,
			now,
			params.CreatedByUID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a job by ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var out model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves all jobs ordered by creation time, newest first.
func (r *JobRepo) List(ctx context.Context) ([]*model.Job, error) {
	var rowsOut []model.Job
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Job, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update applies a partial update and returns the updated record.
func (r *JobRepo) Update(ctx context.Context, id string, patch *model.JobPatch) (*model.Job, error) {
	if patch == nil {
		return nil, apperrors.Validation("job patch is required")
	}
	setClause, args, err := r.buildUpdateClause(patch)
	if err != nil {
		return nil, err
	}
	if setClause == "" {
		return r.GetByID(ctx, id)
	}

	var out model.Job
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		args = append(args, id)
		query := "UPDATE jobs SET " + setClause +
			" WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + jobColumns
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return e
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// buildUpdateClause builds the SQL SET clause and args for a job patch.
func (r *JobRepo) buildUpdateClause(patch *model.JobPatch) (string, []any, error) {
	setParts := make([]string, 0, 13)
	args := make([]any, 0, 14)
	nextIdx := func() int { return len(args) + 1 }

	addText := func(col string, v *string) {
		if v == nil {
			return
		}
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, nextIdx()))
		args = append(args, *v)
	}
	addText("job_number", patch.JobNumber)
	addText("customer_name", patch.CustomerName)
	addText("brand_name", patch.BrandName)
	addText("design_name", patch.DesignName)
	addText("cylinder_numbers", patch.CylinderNumbers)
	addText("colour_names", patch.ColourNames)
	addText("notes", patch.Notes)

	addNullable := func(col string, set bool, v any) {
		if !set {
			return
		}
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, nextIdx()))
		args = append(args, v)
	}
	addNullable("web_width_mm", patch.WebWidthSet, patch.WebWidthMm)
	addNullable("repeat_length_mm", patch.RepeatLengthSet, patch.RepeatLengthMm)
	addNullable("gusset_mm", patch.GussetSet, patch.GussetMm)
	addNullable("number_of_colours", patch.NumColoursSet, patch.NumberOfColours)

	if patch.MaterialsSet {
		materials, err := marshalMaterials(patch.Materials)
		if err != nil {
			return "", nil, err
		}
		setParts = append(setParts, fmt.Sprintf("materials = $%d::jsonb", nextIdx()))
		args = append(args, materials)
	}

	if len(setParts) == 0 {
		return "", nil, nil
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())
	return strings.Join(setParts, ", "), args, nil
}

// Delete deletes a job by ID.
func (r *JobRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", apperrors.MapDBError(err))
	}
	return rows > 0, nil
}

// AttachImage appends the URL to the job's image list.
func (r *JobRepo) AttachImage(ctx context.Context, id, url string) (*model.Job, error) {
	var out model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE jobs
			SET image_urls = array_append(image_urls, $2), updated_at = $3
			WHERE id = $1
			RETURNING `+jobColumns,
			id, url, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// DetachImage removes the URL from the job's image list and, when the URL
// maps to managed storage, records the blob path in the cleanup log within
// the same transaction. The blob itself is deleted later by the sweeper.
func (r *JobRepo) DetachImage(ctx context.Context, params core.DetachImageParams) (*model.Job, error) {
	var out model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE jobs
			SET image_urls = array_remove(image_urls, $2), updated_at = $3
			WHERE id = $1
			RETURNING `+jobColumns,
			params.JobID, params.URL, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Job])
		if err != nil {
			return err
		}
		if params.BlobPath == "" {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO blob_cleanup (blob_path, created_at)
			VALUES ($1, $2)
			ON CONFLICT (blob_path) DO NOTHING`,
			params.BlobPath, r.timeProvider.Now().UTC())
		return err
	}})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// WaitForChange blocks on the jobs change channel until a notification
// arrives, the timeout elapses, or the context is done. It reports whether a
// notification arrived.
func (r *JobRepo) WaitForChange(ctx context.Context, timeout time.Duration) (bool, error) {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			_ = cerr
		}
	}()

	quoted := pgx.Identifier{jobsChangedChannel}.Sanitize()
	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		return false, fmt.Errorf("listen %s: %w", jobsChangedChannel, execErr)
	}
	defer func() {
		if _, execErr := conn.ExecContext(context.Background(), "UNLISTEN "+quoted); execErr != nil {
			_ = execErr
		}
	}()

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err = conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(waitCtx)
		return notifyErr
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return false, nil
	default:
		return false, err
	}
}

func marshalMaterials(materials []model.Material) ([]byte, error) {
	if materials == nil {
		materials = []model.Material{}
	}
	b, err := json.Marshal(materials)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode materials")
	}
	return b, nil
}
