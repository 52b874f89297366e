package httpx

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
	"github.com/inkform/gravure-api/internal/mocks"
	"github.com/inkform/gravure-api/internal/service"
)

func newUploadHandlers(t *testing.T) (*mocks.MockJobRepository, *mocks.MockBlobStore, *UploadHandlers) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	jobs := mocks.NewMockJobRepository(ctrl)
	blobs := mocks.NewMockBlobStore(ctrl)
	svc, err := service.NewUploadService(service.UploadServiceOptions{Jobs: jobs, Blobs: blobs})
	require.NoError(t, err)
	return jobs, blobs, &UploadHandlers{Svc: svc, MaxUploadBytes: 1 << 20}
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadHandlers_Upload(t *testing.T) {
	jobs, blobs, handlers := newUploadHandlers(t)

	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)
	const url = "https://storage.googleapis.com/bucket/jobs/job-1/1-proof.png"
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int64, r io.Reader, _ func(int64, int64)) (string, error) {
			_, err := io.ReadAll(r)
			require.NoError(t, err)
			return url, nil
		})
	jobs.EXPECT().AttachImage(gomock.Any(), "job-1", url).Return(&model.Job{ID: "job-1"}, nil)

	body, contentType := multipartBody(t, "proof.png", "fake image bytes")
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/jobs/job-1/images", body), domainauth.RoleOperator)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	handlers.Upload(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"succeeded"`)
	assert.Contains(t, w.Body.String(), `"progress":100`)
	assert.Contains(t, w.Body.String(), url)
}

func TestUploadHandlers_Upload_MissingFile(t *testing.T) {
	_, _, handlers := newUploadHandlers(t)

	req := withSession(
		httptest.NewRequest(http.MethodPost, "/api/jobs/job-1/images", strings.NewReader("not multipart")),
		domainauth.RoleOperator,
	)
	req.Header.Set("Content-Type", "text/plain")
	req.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	handlers.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandlers_Upload_TransferFailure(t *testing.T) {
	jobs, blobs, handlers := newUploadHandlers(t)

	jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{ID: "job-1"}, nil)
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", apperrors.Transfer("Blob transfer failed"))

	body, contentType := multipartBody(t, "proof.png", "fake image bytes")
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/jobs/job-1/images", body), domainauth.RoleOperator)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	handlers.Upload(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUploadHandlers_Upload_ViewerForbidden(t *testing.T) {
	_, _, handlers := newUploadHandlers(t)

	body, contentType := multipartBody(t, "proof.png", "fake image bytes")
	req := withSession(httptest.NewRequest(http.MethodPost, "/api/jobs/job-1/images", body), domainauth.RoleViewer)
	req.Header.Set("Content-Type", contentType)
	req.SetPathValue("id", "job-1")
	w := httptest.NewRecorder()

	handlers.Upload(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadHandlers_Status_NotFound(t *testing.T) {
	_, _, handlers := newUploadHandlers(t)

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/uploads/nope", nil), domainauth.RoleViewer)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	handlers.Status(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
