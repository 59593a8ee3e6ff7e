package perception

import (
	"fmt"
	"time"
)

// Config holds perception worker settings.
type Config struct {
	// CaptureInterval is the cadence frames are pulled from the
	// source at.
	CaptureInterval time.Duration `json:"capture_interval"`

	// MaxConsecutiveFailures is how many capture failures in a row
	// are tolerated before the source is reconnected.
	MaxConsecutiveFailures int `json:"max_consecutive_failures"`

	// ReconnectDelay is the pause before reopening a failed source.
	ReconnectDelay time.Duration `json:"reconnect_delay"`
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		CaptureInterval:        200 * time.Millisecond,
		MaxConsecutiveFailures: 10,
		ReconnectDelay:         2 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.CaptureInterval <= 0 {
		return fmt.Errorf("capture interval must be positive, got %v", c.CaptureInterval)
	}
	if c.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("max consecutive failures must be at least 1, got %d", c.MaxConsecutiveFailures)
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("reconnect delay must not be negative, got %v", c.ReconnectDelay)
	}
	return nil
}
