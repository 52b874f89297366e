// Package mocks provides mock implementations for testing the gravure job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// repository and port interfaces. The generated files are committed so tests run
// without a codegen step.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Core repository interfaces.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/inkform/gravure-api/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=profile_repository_mock.go github.com/inkform/gravure-api/internal/core ProfileRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cleanup_queue_mock.go github.com/inkform/gravure-api/internal/core CleanupQueue

// Port interfaces.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=identity_provider_mock.go github.com/inkform/gravure-api/internal/ports IdentityProvider
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_store_mock.go github.com/inkform/gravure-api/internal/ports SessionStore
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=blob_store_mock.go github.com/inkform/gravure-api/internal/ports BlobStore
