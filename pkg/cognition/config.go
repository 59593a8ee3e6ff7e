package cognition

import (
	"fmt"
	"os"
	"time"
)

// Config holds reasoner settings.
type Config struct {
	// APIKey authenticates against the LLM API.
	APIKey string `json:"-"`

	// Model is the chat model to use.
	Model string `json:"model"`

	// BaseURL overrides the API endpoint. Empty means the provider
	// default. Used by tests.
	BaseURL string `json:"base_url,omitempty"`

	// Timeout bounds a single cognition pass.
	Timeout time.Duration `json:"timeout"`

	// MaxTokens caps the model's answer length.
	MaxTokens int `json:"max_tokens"`

	// Temperature controls answer variability.
	Temperature float32 `json:"temperature"`
}

// DefaultConfig returns the default reasoner configuration. The API
// key is read from OPENAI_API_KEY.
func DefaultConfig() Config {
	return Config{
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:       "gpt-4o-mini",
		Timeout:     10 * time.Second,
		MaxTokens:   300,
		Temperature: 0.7,
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
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}
