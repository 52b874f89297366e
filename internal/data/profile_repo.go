package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inkform/gravure-api/internal/data/pgxutil"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

const profileColumns = `uid, name, email, role, active, created_at`

// ProfileRepo provides database operations for user directory records.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// Create inserts a new profile. A duplicate UID or email yields a conflict error.
func (r *ProfileRepo) Create(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	if p == nil {
		return nil, apperrors.Validation("profile is required")
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now().UTC()
	}

	var out model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (uid, name, email, role, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+profileColumns,
			p.UID, p.Name, p.Email, p.Role, p.Active, createdAt)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByUID retrieves a profile by UID.
func (r *ProfileRepo) GetByUID(ctx context.Context, uid string) (*model.Profile, error) {
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+profileColumns+` FROM users WHERE uid = $1`, uid)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List retrieves all profiles ordered by name.
func (r *ProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	var rowsOut []model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+profileColumns+` FROM users ORDER BY lower(name), uid`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Profile, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Save applies an administrator's edit to an existing profile.
func (r *ProfileRepo) Save(ctx context.Context, req *model.SaveProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, apperrors.Validation("save profile request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE users
			SET name = $2, role = $3, active = $4
			WHERE uid = $1
			RETURNING `+profileColumns,
			req.UID, req.Name, req.Role, req.Active)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
