// Package companion wires the perception, cognition, and speech loops
// into one application: watch the room, listen to the user, decide
// when to speak, and say it.
package companion

import (
	"fmt"
	"os"
	"time"

	"github.com/cinemate/go-cinemate/pkg/recognizer"
)

// Default configuration values.
const (
	DefaultListenAddr        = ":8181"
	DefaultCognitionInterval = 3 * time.Second
	DefaultDistressCooldown  = 30 * time.Second
)

// Config holds all configuration for the companion application.
// Flag parsing is done in cmd/cinemate/main.go; this struct is data only.
type Config struct {
	// ListenAddr is the dashboard/API bind address.
	ListenAddr string

	// CameraDevice is the webcam device index.
	CameraDevice int

	// Demo runs the full pipeline on simulated sources: synthetic
	// frames, simulated ambient loudness, and scripted user speech.
	Demo bool

	// ScriptPath is an optional YAML clip script (timeline cues and
	// response overrides).
	ScriptPath string

	// MemoryPath is where session memory persists. Empty means
	// ~/.cinemate/memory.json.
	MemoryPath string

	// WakePhrase is what the user says to address the companion.
	WakePhrase string

	// CognitionInterval is the periodic check-in cadence.
	CognitionInterval time.Duration

	// DistressCooldown rate-limits distress reactions.
	DistressCooldown time.Duration

	// API keys (typically from environment variables).
	OpenAIKey     string
	ElevenLabsKey string
	GoogleAPIKey  string

	// ElevenLabsVoice overrides the default synthesis voice.
	ElevenLabsVoice string
}

// DefaultConfig returns sensible defaults for the companion.
func DefaultConfig() Config {
	return Config{
		ListenAddr:        DefaultListenAddr,
		WakePhrase:        recognizer.DefaultWakePhrase,
		CognitionInterval: DefaultCognitionInterval,
		DistressCooldown:  DefaultDistressCooldown,
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnvConfig() {
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	c.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	if addr := os.Getenv("CINEMATE_ADDR"); addr != "" {
		c.ListenAddr = addr
	}
	if path := os.Getenv("CINEMATE_MEMORY"); path != "" {
		c.MemoryPath = path
	}
	if voice := os.Getenv("ELEVENLABS_VOICE_ID"); voice != "" && c.ElevenLabsVoice == "" {
		c.ElevenLabsVoice = voice
	}
}

// Validate checks that required configuration is present. Demo mode
// needs no credentials; live mode needs all three backends.
func (c *Config) Validate() error {
	if c.CognitionInterval <= 0 {
		return &ConfigError{Field: "CognitionInterval", Message: "cognition interval must be positive"}
	}
	if c.Demo {
		return nil
	}
	if c.GoogleAPIKey == "" {
		return &ConfigError{Field: "GoogleAPIKey", Message: "GOOGLE_API_KEY environment variable is required for scene analysis"}
	}
	if c.OpenAIKey == "" {
		return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for the reasoner"}
	}
	if c.ElevenLabsKey == "" {
		return &ConfigError{Field: "ElevenLabsKey", Message: "ELEVENLABS_API_KEY environment variable is required for speech synthesis"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
