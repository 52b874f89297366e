package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/inkform/gravure-api/config"
	"github.com/inkform/gravure-api/internal/adapters/blobfs"
	"github.com/inkform/gravure-api/internal/adapters/devauth"
	"github.com/inkform/gravure-api/internal/adapters/firebaseauth"
	"github.com/inkform/gravure-api/internal/adapters/gcsblob"
	redisstore "github.com/inkform/gravure-api/internal/adapters/redis"
	"github.com/inkform/gravure-api/internal/ports"
)

// BuildIdentityProvider selects the token verifier for the configured auth
// mode. Dev mode accepts a fixed identity and must never reach production.
//
//nolint:ireturn // returning ports.IdentityProvider lets callers stay mode-agnostic.
func BuildIdentityProvider(ctx context.Context, cfg config.AuthConfig, logger *slog.Logger) (ports.IdentityProvider, error) {
	switch cfg.Mode {
	case config.AuthModeDev:
		if logger != nil {
			logger.Warn("using dev identity provider; all logins resolve to a fixed identity",
				"uid", cfg.DevAuth.UID)
		}
		provider, err := devauth.NewProvider(devauth.Config{
			UID:             cfg.DevAuth.UID,
			Email:           cfg.DevAuth.Email,
			Name:            cfg.DevAuth.Name,
			SessionDuration: cfg.SessionDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev identity provider: %w", err)
		}
		return provider, nil
	case config.AuthModeFirebase:
		provider, err := firebaseauth.NewProvider(ctx, firebaseauth.Config{
			CredentialsFile: cfg.Firebase.CredentialsFile,
			ProjectID:       cfg.Firebase.ProjectID,
		})
		if err != nil {
			return nil, fmt.Errorf("create firebase identity provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %q", cfg.Mode)
	}
}

// BuildBlobStore selects the image storage backend for the configured blob
// mode.
//
//nolint:ireturn // returning ports.BlobStore lets callers stay mode-agnostic.
func BuildBlobStore(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (ports.BlobStore, error) {
	switch cfg.Mode {
	case config.BlobModeFS:
		if logger != nil {
			logger.Warn("using filesystem blob store", "dir", cfg.FS.Dir)
		}
		store, err := blobfs.NewStore(cfg.FS.Dir, cfg.FS.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("create filesystem blob store: %w", err)
		}
		return store, nil
	case config.BlobModeGCS:
		store, err := gcsblob.NewStore(ctx, gcsblob.Config{
			Bucket:          cfg.GCS.Bucket,
			CredentialsFile: cfg.GCS.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("create GCS blob store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob mode: %q", cfg.Mode)
	}
}

// BuildSessionStore wires the Redis-backed session store.
func BuildSessionStore(client redis.UniversalClient) *redisstore.SessionStore {
	return redisstore.NewSessionStore(client)
}
