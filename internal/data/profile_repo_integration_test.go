package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/testutil"
)

func testProfile(uid, email string) *model.Profile {
	return &model.Profile{
		UID:    uid,
		Name:   "Pat Example",
		Email:  email,
		Role:   auth.RoleViewer,
		Active: false,
	}
}

func TestProfileRepo_Integration_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, testProfile("uid-1", "pat@example.com"))
		require.NoError(t, err)
		assert.Equal(t, "uid-1", created.UID)
		assert.Equal(t, auth.RoleViewer, created.Role)
		assert.False(t, created.Active)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := repo.GetByUID(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "pat@example.com", got.Email)
	})
}

func TestProfileRepo_Integration_DuplicateEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, testProfile("uid-1", "pat@example.com"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, testProfile("uid-2", "pat@example.com"))
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestProfileRepo_Integration_GetByUID_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)

		_, err := repo.GetByUID(context.Background(), "no-such-uid")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestProfileRepo_Integration_ListOrdersByName(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		zoe := testProfile("uid-z", "zoe@example.com")
		zoe.Name = "Zoe"
		_, err := repo.Create(ctx, zoe)
		require.NoError(t, err)

		amir := testProfile("uid-a", "amir@example.com")
		amir.Name = "amir"
		_, err = repo.Create(ctx, amir)
		require.NoError(t, err)

		profiles, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		// Case-insensitive name ordering
		assert.Equal(t, "uid-a", profiles[0].UID)
		assert.Equal(t, "uid-z", profiles[1].UID)
	})
}

func TestProfileRepo_Integration_Save(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, testProfile("uid-1", "pat@example.com"))
		require.NoError(t, err)

		saved, err := repo.Save(ctx, &model.SaveProfileRequest{
			UID:    "uid-1",
			Name:   "Pat Example",
			Role:   auth.RoleOperator,
			Active: true,
		})
		require.NoError(t, err)
		assert.Equal(t, auth.RoleOperator, saved.Role)
		assert.True(t, saved.Active)

		// Email is fixed at signup and untouched by an edit
		assert.Equal(t, "pat@example.com", saved.Email)
	})
}

func TestProfileRepo_Integration_Save_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)

		_, err := repo.Save(context.Background(), &model.SaveProfileRequest{
			UID:    "no-such-uid",
			Name:   "Nobody",
			Role:   auth.RoleViewer,
			Active: true,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
