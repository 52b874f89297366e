package config

import (
	"fmt"
	"strings"
)

// BlobMode represents the blob storage backend.
type BlobMode string

const (
	// BlobModeGCS stores images in a Google Cloud Storage bucket.
	BlobModeGCS BlobMode = "gcs"
	// BlobModeFS stores images on the local filesystem (for development only).
	BlobModeFS BlobMode = "fs"
)

// UnmarshalText implements encoding.TextUnmarshaler for BlobMode.
func (b *BlobMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "gcs", "fs":
		*b = BlobMode(v)
		return nil
	default:
		return fmt.Errorf("invalid BlobMode: %q (valid options: gcs, fs)", v)
	}
}

// GCSBlobConfig contains Google Cloud Storage configuration.
type GCSBlobConfig struct {
	// Bucket is the bucket uploaded images land in. Required when Mode=gcs.
	Bucket string `env:"BUCKET" envDefault:""`

	// CredentialsFile is the path to a service account key file. When
	// empty the client uses application default credentials.
	CredentialsFile string `env:"CREDENTIALS_FILE" envDefault:""`
}

// FSBlobConfig contains filesystem blob storage configuration.
type FSBlobConfig struct {
	// Dir is the directory uploaded images land in.
	Dir string `env:"DIR" envDefault:"./data/blobs"`

	// BaseURL is the public URL prefix the stored files are served under.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080/blobs"`
}

// BlobConfig groups blob storage configuration.
type BlobConfig struct {
	// Mode determines which blob storage backend to use.
	Mode BlobMode `env:"MODE" envDefault:"gcs"`

	// GCS configuration (used when Mode=gcs).
	GCS GCSBlobConfig `envPrefix:"GCS_"`

	// FS configuration (used when Mode=fs).
	FS FSBlobConfig `envPrefix:"FS_"`
}

// Sanitize applies guardrails to blob storage configuration values.
func (b *BlobConfig) Sanitize() {
	b.GCS.Bucket = strings.TrimSpace(b.GCS.Bucket)
	b.GCS.CredentialsFile = strings.TrimSpace(b.GCS.CredentialsFile)
	b.FS.BaseURL = strings.TrimRight(strings.TrimSpace(b.FS.BaseURL), "/")
}
