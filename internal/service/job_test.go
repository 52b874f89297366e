package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inkform/gravure-api/internal/core"
	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/mocks"
)

func adminSession() *domainauth.Session {
	return &domainauth.Session{
		ID: "sess-admin", UID: "uid-admin", Role: domainauth.RoleAdmin, Active: true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func operatorSession() *domainauth.Session {
	return &domainauth.Session{
		ID: "sess-op", UID: "uid-op", Role: domainauth.RoleOperator, Active: true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func viewerSession() *domainauth.Session {
	return &domainauth.Session{
		ID: "sess-view", UID: "uid-view", Role: domainauth.RoleViewer, Active: true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// stubNotifier drives Watch tests by hand.
type stubNotifier struct {
	signals chan struct{}
	unsubs  int
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{signals: make(chan struct{}, 4)}
}

func (n *stubNotifier) Subscribe() (func(), <-chan struct{}) {
	return func() { n.unsubs++ }, n.signals
}

func (n *stubNotifier) StopAll() { close(n.signals) }

func newJobService(t *testing.T, notifier *stubNotifier) (*mocks.MockJobRepository, *mocks.MockBlobStore, *JobService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockJobRepository(ctrl)
	blobs := mocks.NewMockBlobStore(ctrl)

	opts := JobServiceOptions{Repo: repo, Blobs: blobs}
	if notifier != nil {
		opts.Notifier = notifier
	}
	svc, err := NewJobService(opts)
	require.NoError(t, err)
	return repo, blobs, svc
}

func validCreateRequest() *model.CreateJobRequest {
	return &model.CreateJobRequest{
		JobNumber:     "J-2041",
		CustomerName:  "Acme Foods",
		BrandName:     "Leaf",
		DesignName:    "Leaf 250g",
		WebWidthMm:    "820",
		MaterialsText: "PET, 12\nLDPE, 37.5",
	}
}

func TestJobService_Create(t *testing.T) {
	t.Parallel()
	repo, _, svc := newJobService(t, nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params core.CreateJobParams) (*model.Job, error) {
			assert.Equal(t, "uid-op", params.CreatedByUID)
			assert.Equal(t, "J-2041", params.Fields.JobNumber)
			require.Len(t, params.Fields.Materials, 2)
			assert.Equal(t, "PET", params.Fields.Materials[0].Type)
			return &model.Job{ID: "job-1", JobNumber: params.Fields.JobNumber}, nil
		})

	job, err := svc.Create(context.Background(), operatorSession(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
}

func TestJobService_Create_DeniedForViewer(t *testing.T) {
	t.Parallel()
	_, _, svc := newJobService(t, nil)

	_, err := svc.Create(context.Background(), viewerSession(), validCreateRequest())
	assert.True(t, apperrors.IsPermission(err))
}

func TestJobService_Create_RejectsMissingFields(t *testing.T) {
	t.Parallel()
	_, _, svc := newJobService(t, nil)

	req := validCreateRequest()
	req.JobNumber = " "
	_, err := svc.Create(context.Background(), operatorSession(), req)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "jobNumber", apperrors.GetField(err))
}

func TestJobService_Get(t *testing.T) {
	t.Parallel()
	repo, _, svc := newJobService(t, nil)

	repo.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)

	job, err := svc.Get(context.Background(), viewerSession(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)

	_, err = svc.Get(context.Background(), nil, "job-1")
	assert.True(t, apperrors.IsAccess(err))

	inactive := viewerSession()
	inactive.Active = false
	_, err = svc.Get(context.Background(), inactive, "job-1")
	assert.True(t, apperrors.IsAccess(err))
}

func TestJobService_List_AppliesFilter(t *testing.T) {
	t.Parallel()
	repo, _, svc := newJobService(t, nil)

	repo.EXPECT().List(gomock.Any()).Return([]*model.Job{
		{ID: "a", CustomerName: "Acme Foods"},
		{ID: "b", CustomerName: "Borden"},
	}, nil)

	jobs, err := svc.List(context.Background(), viewerSession(), "customerName == 'Acme Foods'")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].ID)
}

func TestJobService_List_BadFilter(t *testing.T) {
	t.Parallel()
	repo, _, svc := newJobService(t, nil)

	repo.EXPECT().List(gomock.Any()).Return([]*model.Job{{ID: "a"}}, nil)

	_, err := svc.List(context.Background(), viewerSession(), "customerName ==")
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "filter", apperrors.GetField(err))
}

func TestJobService_Update(t *testing.T) {
	t.Parallel()
	repo, _, svc := newJobService(t, nil)

	notes := "Press 3 only"
	repo.EXPECT().Update(gomock.Any(), "job-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch *model.JobPatch) (*model.Job, error) {
			require.NotNil(t, patch.Notes)
			assert.Equal(t, notes, *patch.Notes)
			return &model.Job{ID: "job-1", Notes: notes}, nil
		})

	job, err := svc.Update(context.Background(), operatorSession(), "job-1", &model.UpdateJobRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, job.Notes)
}

func TestJobService_Update_DeniedForViewer(t *testing.T) {
	t.Parallel()
	_, _, svc := newJobService(t, nil)

	notes := "nope"
	_, err := svc.Update(context.Background(), viewerSession(), "job-1", &model.UpdateJobRequest{Notes: &notes})
	assert.True(t, apperrors.IsPermission(err))
}

func TestJobService_Delete(t *testing.T) {
	t.Parallel()
	repo, _, svc := newJobService(t, nil)

	repo.EXPECT().Delete(gomock.Any(), "job-1").Return(true, nil)
	require.NoError(t, svc.Delete(context.Background(), operatorSession(), "job-1"))

	repo.EXPECT().Delete(gomock.Any(), "gone").Return(false, nil)
	err := svc.Delete(context.Background(), operatorSession(), "gone")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobService_DetachImage_RecordsBlobPath(t *testing.T) {
	t.Parallel()
	repo, blobs, svc := newJobService(t, nil)

	const url = "https://storage.googleapis.com/bucket/jobs/job-1/1-a.png"
	blobs.EXPECT().PathFromURL(url).Return("jobs/job-1/1-a.png", true)
	repo.EXPECT().DetachImage(gomock.Any(), core.DetachImageParams{
		JobID:    "job-1",
		URL:      url,
		BlobPath: "jobs/job-1/1-a.png",
	}).Return(&model.Job{ID: "job-1"}, nil)

	job, err := svc.DetachImage(context.Background(), adminSession(), "job-1", url)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
}

func TestJobService_DetachImage_ForeignURLSkipsCleanup(t *testing.T) {
	t.Parallel()
	repo, blobs, svc := newJobService(t, nil)

	const url = "https://elsewhere.example.com/a.png"
	blobs.EXPECT().PathFromURL(url).Return("", false)
	repo.EXPECT().DetachImage(gomock.Any(), core.DetachImageParams{
		JobID: "job-1",
		URL:   url,
	}).Return(&model.Job{ID: "job-1"}, nil)

	_, err := svc.DetachImage(context.Background(), operatorSession(), "job-1", url)
	require.NoError(t, err)
}

func TestJobService_DetachImage_DeniedForViewer(t *testing.T) {
	t.Parallel()
	_, _, svc := newJobService(t, nil)

	_, err := svc.DetachImage(context.Background(), viewerSession(), "job-1", "https://x/a.png")
	assert.True(t, apperrors.IsPermission(err))
}

func TestJobService_Watch_SendsSnapshots(t *testing.T) {
	t.Parallel()
	notifier := newStubNotifier()
	repo, _, svc := newJobService(t, notifier)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := []*model.Job{{ID: "a"}}
	second := []*model.Job{{ID: "a"}, {ID: "b"}}
	gomock.InOrder(
		repo.EXPECT().List(gomock.Any()).Return(first, nil),
		repo.EXPECT().List(gomock.Any()).Return(second, nil),
	)

	out, stop, err := svc.Watch(ctx, viewerSession(), "")
	require.NoError(t, err)
	defer stop()

	select {
	case jobs := <-out:
		require.Len(t, jobs, 1)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no initial snapshot")
	}

	notifier.signals <- struct{}{}
	select {
	case jobs := <-out:
		require.Len(t, jobs, 2)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no snapshot after change")
	}

	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok, "channel must close on cancel")
	case <-time.After(200 * time.Millisecond):
		t.Fatal("channel not closed")
	}
}

func TestJobService_Watch_RejectsBadFilterUpFront(t *testing.T) {
	t.Parallel()
	notifier := newStubNotifier()
	_, _, svc := newJobService(t, notifier)

	_, _, err := svc.Watch(context.Background(), viewerSession(), "not a [valid")
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, notifier.unsubs)
}

func TestJobService_Watch_RequiresSession(t *testing.T) {
	t.Parallel()
	_, _, svc := newJobService(t, newStubNotifier())

	_, _, err := svc.Watch(context.Background(), nil, "")
	assert.True(t, apperrors.IsAccess(err))
}
