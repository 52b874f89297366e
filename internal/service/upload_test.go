package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/mocks"
)

func newUploadService(t *testing.T) (*mocks.MockJobRepository, *mocks.MockBlobStore, *UploadService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	jobs := mocks.NewMockJobRepository(ctrl)
	blobs := mocks.NewMockBlobStore(ctrl)
	svc, err := NewUploadService(UploadServiceOptions{Jobs: jobs, Blobs: blobs})
	require.NoError(t, err)
	return jobs, blobs, svc
}

func uploadInput(body string) StartUploadInput {
	return StartUploadInput{
		JobID:       "job-1",
		Filename:    "proof.png",
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestUploadService_Upload_Succeeds(t *testing.T) {
	t.Parallel()
	jobs, blobs, svc := newUploadService(t)
	ctx := context.Background()

	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)

	const url = "https://storage.googleapis.com/bucket/jobs/job-1/1-proof.png"
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), "image/png", int64(5), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path, _ string, size int64, r io.Reader, progress func(int64, int64)) (string, error) {
			assert.True(t, strings.HasPrefix(path, "jobs/job-1/"))
			assert.True(t, strings.HasSuffix(path, "-proof.png"))
			_, err := io.ReadAll(r)
			require.NoError(t, err)
			progress(2, size)
			progress(size, size)
			return url, nil
		})
	jobs.EXPECT().AttachImage(gomock.Any(), "job-1", url).Return(&model.Job{ID: "job-1", ImageURLs: []string{url}}, nil)

	status, err := svc.Upload(ctx, operatorSession(), uploadInput("hello"))
	require.NoError(t, err)
	assert.Equal(t, UploadStateSucceeded, status.State)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, url, status.URL)

	// The finished task stays queryable.
	got, err := svc.Status(ctx, operatorSession(), status.ID)
	require.NoError(t, err)
	assert.Equal(t, UploadStateSucceeded, got.State)
}

func TestUploadService_Upload_TransferFailure(t *testing.T) {
	t.Parallel()
	jobs, blobs, svc := newUploadService(t)
	ctx := context.Background()

	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", apperrors.Transfer("Blob transfer failed"))

	_, err := svc.Upload(ctx, operatorSession(), uploadInput("hello"))
	assert.True(t, apperrors.IsTransfer(err))
}

func TestUploadService_Upload_AttachFailureDeletesBlob(t *testing.T) {
	t.Parallel()
	jobs, blobs, svc := newUploadService(t)
	ctx := context.Background()

	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)

	var storedPath string
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path, _ string, _ int64, _ io.Reader, _ func(int64, int64)) (string, error) {
			storedPath = path
			return "https://storage.googleapis.com/bucket/" + path, nil
		})
	jobs.EXPECT().AttachImage(gomock.Any(), "job-1", gomock.Any()).
		Return(nil, apperrors.NotFound("Record not found"))
	blobs.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, path string) error {
			assert.Equal(t, storedPath, path)
			return nil
		})

	_, err := svc.Upload(ctx, operatorSession(), uploadInput("hello"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUploadService_Upload_UnknownJob(t *testing.T) {
	t.Parallel()
	jobs, _, svc := newUploadService(t)

	jobs.EXPECT().GetByID(gomock.Any(), "gone").Return(nil, apperrors.NotFound("Record not found"))

	input := uploadInput("hello")
	input.JobID = "gone"
	_, err := svc.Upload(context.Background(), operatorSession(), input)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUploadService_Upload_DeniedForViewer(t *testing.T) {
	t.Parallel()
	_, _, svc := newUploadService(t)

	_, err := svc.Upload(context.Background(), viewerSession(), uploadInput("hello"))
	assert.True(t, apperrors.IsPermission(err))
}

func TestUploadService_Upload_Validation(t *testing.T) {
	t.Parallel()
	_, _, svc := newUploadService(t)
	ctx := context.Background()

	empty := uploadInput("")
	_, err := svc.Upload(ctx, operatorSession(), empty)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "file", apperrors.GetField(err))

	noName := uploadInput("hello")
	noName.Filename = ""
	_, err = svc.Upload(ctx, operatorSession(), noName)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "filename", apperrors.GetField(err))
}

func TestUploadService_Status_Unknown(t *testing.T) {
	t.Parallel()
	_, _, svc := newUploadService(t)

	_, err := svc.Status(context.Background(), viewerSession(), "no-such-task")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUploadService_Status_PrunesOldTasks(t *testing.T) {
	t.Parallel()
	jobs, blobs, svc := newUploadService(t)
	ctx := context.Background()

	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("https://storage.googleapis.com/bucket/jobs/job-1/1-proof.png", nil)
	jobs.EXPECT().AttachImage(gomock.Any(), "job-1", gomock.Any()).Return(&model.Job{ID: "job-1"}, nil)

	status, err := svc.Upload(ctx, operatorSession(), uploadInput("hello"))
	require.NoError(t, err)

	// Move the clock past the retention window.
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	_, err = svc.Status(ctx, operatorSession(), status.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "proof.png", sanitizeFilename("proof.png"))
	assert.Equal(t, "proof.png", sanitizeFilename(`C:\Users\pat\proof.png`))
	assert.Equal(t, "proof.png", sanitizeFilename("../../proof.png"))
	assert.Equal(t, "caf__proof.png", sanitizeFilename("café proof.png"))
	assert.Equal(t, "upload", sanitizeFilename("日本語"))
}

func TestAdvanceProgressIsMonotonic(t *testing.T) {
	t.Parallel()
	_, _, svc := newUploadService(t)

	svc.setStatus("t1", UploadStatus{ID: "t1", State: UploadStateUploading}, false)
	svc.advanceProgress("t1", 50, 100)
	svc.advanceProgress("t1", 25, 100)

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Equal(t, 50, svc.tasks["t1"].status.Progress)
}

func TestAdvanceProgressCapsAt99(t *testing.T) {
	t.Parallel()
	_, _, svc := newUploadService(t)

	svc.setStatus("t1", UploadStatus{ID: "t1", State: UploadStateUploading}, false)
	svc.advanceProgress("t1", 100, 100)

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Equal(t, 99, svc.tasks["t1"].status.Progress)
}
