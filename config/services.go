package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeSweeper runs the detached blob sweeper.
	ServiceModeSweeper ServiceMode = "sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeSweeper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, sweeper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SweeperConfig contains detached blob sweeper configuration.
type SweeperConfig struct {
	// Interval is the sweeper tick interval.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"1m"`

	// BatchSize is the maximum number of cleanup tasks to claim per sweep.
	BatchSize int `env:"SWEEPER_BATCH_SIZE" envDefault:"50"`

	// RetryAfter is how long a claimed task is held before another sweep
	// may retry it.
	RetryAfter time.Duration `env:"SWEEPER_RETRY_AFTER" envDefault:"5m"`

	// MaxAttempts is the attempt budget before a cleanup task is dropped.
	MaxAttempts int `env:"SWEEPER_MAX_ATTEMPTS" envDefault:"10"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	if s.Interval < 10*time.Second {
		s.Interval = 10 * time.Second
	}
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	if s.BatchSize > 1000 {
		s.BatchSize = 1000
	}
	if s.RetryAfter < s.Interval {
		s.RetryAfter = s.Interval
	}
	if s.MaxAttempts < 1 {
		s.MaxAttempts = 1
	}
}

// WatchConfig contains job change notification configuration.
type WatchConfig struct {
	// WaitWindow is how long a single listen cycle blocks before
	// re-checking for shutdown.
	WaitWindow time.Duration `env:"WATCH_WAIT_WINDOW" envDefault:"1m"`

	// Backoff is the pause after a failed listen cycle before retrying.
	Backoff time.Duration `env:"WATCH_BACKOFF" envDefault:"250ms"`
}

// Sanitize applies guardrails to watch configuration values.
func (w *WatchConfig) Sanitize() {
	if w.WaitWindow < time.Second {
		w.WaitWindow = time.Second
	}
	if w.Backoff < 50*time.Millisecond {
		w.Backoff = 50 * time.Millisecond
	}
}
