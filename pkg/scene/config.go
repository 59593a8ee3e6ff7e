package scene

import (
	"fmt"
	"os"
	"time"
)

// Config holds scene analyzer settings.
type Config struct {
	// APIKey authenticates against the vision API.
	APIKey string `json:"-"`

	// Model is the vision model to use.
	Model string `json:"model"`

	// BaseURL is the API endpoint base. Overridable for testing.
	BaseURL string `json:"base_url"`

	// Timeout bounds a single API call.
	Timeout time.Duration `json:"timeout"`

	// MaxAttempts is how many times a transient failure is retried
	// before giving up. The first call counts as an attempt.
	MaxAttempts int `json:"max_attempts"`

	// RetryBaseDelay is the backoff delay before the second attempt.
	// Each further attempt doubles it.
	RetryBaseDelay time.Duration `json:"retry_base_delay"`
}

// DefaultConfig returns the default analyzer configuration. The API
// key is read from GOOGLE_API_KEY.
func DefaultConfig() Config {
	return Config{
		APIKey:         os.Getenv("GOOGLE_API_KEY"),
		Model:          "gemini-2.0-flash",
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
		Timeout:        15 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive, got %v", c.RetryBaseDelay)
	}
	return nil
}
