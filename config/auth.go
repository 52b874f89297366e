package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeFirebase verifies Firebase ID tokens.
	AuthModeFirebase AuthMode = "firebase"
	// AuthModeDev uses a fixed development identity (for development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "firebase", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: firebase, dev)", v)
	}
}

// FirebaseConfig contains Firebase Admin SDK configuration.
// With no credentials file set, the SDK falls back to application
// default credentials.
type FirebaseConfig struct {
	CredentialsFile string `env:"CREDENTIALS_FILE" envDefault:""`
	ProjectID       string `env:"PROJECT_ID"       envDefault:""`
}

// DevAuthConfig controls the fixed dev identity.
// Used when AUTH_MODE=dev for development and testing.
type DevAuthConfig struct {
	UID   string `env:"UID"   envDefault:"dev-user"`
	Email string `env:"EMAIL" envDefault:"dev@example.com"`
	Name  string `env:"NAME"  envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"firebase"`

	// Firebase configuration (used when Mode=firebase).
	Firebase FirebaseConfig `envPrefix:"FIREBASE_"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// SessionDuration is how long an issued session lives.
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"12h"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	// Very short sessions just churn the store; very long ones defeat
	// the point of expiry.
	if a.SessionDuration < time.Minute {
		a.SessionDuration = time.Minute
	}
	if a.SessionDuration > 30*24*time.Hour {
		a.SessionDuration = 30 * 24 * time.Hour
	}
}
