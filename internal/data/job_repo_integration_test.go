package data

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkform/gravure-api/internal/core"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/testutil"
)

func testJobFields(jobNumber string) *model.JobFields {
	return &model.JobFields{
		JobNumber:       jobNumber,
		CustomerName:    "FlexiWrap Ltd",
		BrandName:       "Crispies",
		DesignName:      "Crispies 200g front",
		CylinderNumbers: "C-1041, C-1042",
		ColourNames:     "Cyan, Magenta, Yellow, Black, White, PMS 485",
		Notes:           "Hold for customer approval",
		Materials: []model.Material{
			{Type: "PET", ThicknessMicron: testutil.Float64Ptr(12)},
			{Type: "Adhesive", ThicknessMicron: nil},
			{Type: "LDPE", ThicknessMicron: testutil.Float64Ptr(60)},
		},
		WebWidthMm:      testutil.Float64Ptr(860),
		RepeatLengthMm:  testutil.Float64Ptr(420.5),
		NumberOfColours: testutil.IntPtr(6),
	}
}

func TestJobRepo_Integration_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{
			Fields:       testJobFields("J-2024-0042"),
			CreatedByUID: "uid-maker",
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "J-2024-0042", created.JobNumber)
		assert.Equal(t, "FlexiWrap Ltd", created.CustomerName)
		assert.Equal(t, "uid-maker", created.CreatedByUID)
		assert.Empty(t, created.ImageURLs)
		require.NotNil(t, created.WebWidthMm)
		assert.InDelta(t, 860, *created.WebWidthMm, 0.001)
		assert.Nil(t, created.GussetMm)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		require.Len(t, got.Materials, 3)
		assert.Equal(t, "Adhesive", got.Materials[1].Type)
		assert.Nil(t, got.Materials[1].ThicknessMicron)
		require.NotNil(t, got.Materials[2].ThicknessMicron)
		assert.InDelta(t, 60, *got.Materials[2].ThicknessMicron, 0.001)
		require.NotNil(t, got.NumberOfColours)
		assert.Equal(t, 6, *got.NumberOfColours)
	})
}

func TestJobRepo_Integration_GetByID_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)

		_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_Integration_ListNewestFirst(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewJobRepoWithTimeProvider(db, tp)
		ctx := context.Background()

		older, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0001")})
		require.NoError(t, err)

		tp.AddTime(time.Minute)
		newer, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0002")})
		require.NoError(t, err)

		jobs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, newer.ID, jobs[0].ID)
		assert.Equal(t, older.ID, jobs[1].ID)
	})
}

func TestJobRepo_Integration_Update(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0050")})
		require.NoError(t, err)

		patch := &model.JobPatch{
			CustomerName: testutil.StringPtr("NewCo Packaging"),
			Notes:        testutil.StringPtr("Rerun with revised cylinders"),
			// Supplied but blank: clears the stored value.
			WebWidthMm:    nil,
			WebWidthSet:   true,
			Materials:     []model.Material{{Type: "OPP", ThicknessMicron: testutil.Float64Ptr(20)}},
			MaterialsSet:  true,
			NumColoursSet:   true,
			NumberOfColours: testutil.IntPtr(8),
		}
		updated, err := repo.Update(ctx, created.ID, patch)
		require.NoError(t, err)
		assert.Equal(t, "NewCo Packaging", updated.CustomerName)
		assert.Equal(t, "Rerun with revised cylinders", updated.Notes)
		assert.Nil(t, updated.WebWidthMm)
		require.NotNil(t, updated.NumberOfColours)
		assert.Equal(t, 8, *updated.NumberOfColours)
		require.Len(t, updated.Materials, 1)
		assert.Equal(t, "OPP", updated.Materials[0].Type)

		// Untouched fields survive
		assert.Equal(t, "J-2024-0050", updated.JobNumber)
		require.NotNil(t, updated.RepeatLengthMm)
		assert.InDelta(t, 420.5, *updated.RepeatLengthMm, 0.001)
	})
}

func TestJobRepo_Integration_Update_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)

		_, err := repo.Update(context.Background(), "00000000-0000-0000-0000-000000000000", &model.JobPatch{
			Notes: testutil.StringPtr("does not matter"),
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_Integration_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0060")})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetByID(ctx, created.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRepo_Integration_AttachAndDetachImage(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0070")})
		require.NoError(t, err)

		url := "https://storage.googleapis.com/gravure-images/jobs/" + created.ID + "/abc-proof.png"
		withImage, err := repo.AttachImage(ctx, created.ID, url)
		require.NoError(t, err)
		require.Len(t, withImage.ImageURLs, 1)
		assert.Equal(t, url, withImage.ImageURLs[0])

		blobPath := "jobs/" + created.ID + "/abc-proof.png"
		detached, err := repo.DetachImage(ctx, core.DetachImageParams{
			JobID:    created.ID,
			URL:      url,
			BlobPath: blobPath,
		})
		require.NoError(t, err)
		assert.Empty(t, detached.ImageURLs)

		// The detach transaction records the deletion intent
		var count int
		err = db.QueryRowContext(ctx,
			"SELECT count(*) FROM blob_cleanup WHERE blob_path = $1", blobPath).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestJobRepo_Integration_DetachImage_NoBlobPathSkipsCleanup(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0071")})
		require.NoError(t, err)

		url := "https://elsewhere.example.com/foreign.png"
		_, err = repo.AttachImage(ctx, created.ID, url)
		require.NoError(t, err)

		_, err = repo.DetachImage(ctx, core.DetachImageParams{JobID: created.ID, URL: url})
		require.NoError(t, err)

		var count int
		err = db.QueryRowContext(ctx, "SELECT count(*) FROM blob_cleanup").Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestJobRepo_Integration_Update_ConcurrentLastWriteWins(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0090")})
		require.NoError(t, err)

		patches := []*model.JobPatch{
			{
				CustomerName: testutil.StringPtr("Writer A Co"),
				Notes:        testutil.StringPtr("notes from writer A"),
			},
			{
				CustomerName: testutil.StringPtr("Writer B Co"),
				Notes:        testutil.StringPtr("notes from writer B"),
			},
		}

		var wg sync.WaitGroup
		errs := make([]error, len(patches))
		for i, patch := range patches {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.Update(ctx, created.ID, patch)
			}()
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		// One writer wins outright: the surviving row carries both fields
		// from the same patch, never a mix.
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		switch got.CustomerName {
		case "Writer A Co":
			assert.Equal(t, "notes from writer A", got.Notes)
		case "Writer B Co":
			assert.Equal(t, "notes from writer B", got.Notes)
		default:
			t.Fatalf("unexpected customer name %q", got.CustomerName)
		}
	})
}

func TestJobRepo_Integration_DetachImage_AbsentURLStillLogsCleanup(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, core.CreateJobParams{Fields: testJobFields("J-2024-0091")})
		require.NoError(t, err)

		keptURL := "https://storage.googleapis.com/gravure-images/jobs/" + created.ID + "/kept.png"
		_, err = repo.AttachImage(ctx, created.ID, keptURL)
		require.NoError(t, err)

		// Detaching a URL the record never held leaves the image list
		// alone but still records the deletion intent, so an orphaned
		// blob gets swept even after a double-detach.
		goneURL := "https://storage.googleapis.com/gravure-images/jobs/" + created.ID + "/gone.png"
		blobPath := "jobs/" + created.ID + "/gone.png"
		detached, err := repo.DetachImage(ctx, core.DetachImageParams{
			JobID:    created.ID,
			URL:      goneURL,
			BlobPath: blobPath,
		})
		require.NoError(t, err)
		require.Len(t, detached.ImageURLs, 1)
		assert.Equal(t, keptURL, detached.ImageURLs[0])

		var count int
		err = db.QueryRowContext(ctx,
			"SELECT count(*) FROM blob_cleanup WHERE blob_path = $1", blobPath).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestJobRepo_Integration_WaitForChange(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db)
		ctx := context.Background()

		// Timeout path: no writes, WaitForChange reports no change
		changed, err := repo.WaitForChange(ctx, 200*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, changed)

		// Notification path: a concurrent insert fires the jobs trigger
		go func() {
			time.Sleep(100 * time.Millisecond)
			_, _ = repo.Create(context.Background(), core.CreateJobParams{
				Fields: testJobFields("J-2024-0080"),
			})
		}()

		changed, err = repo.WaitForChange(ctx, 5*time.Second)
		require.NoError(t, err)
		assert.True(t, changed)
	})
}
