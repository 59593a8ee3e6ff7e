package audiogate

import (
	"fmt"
	"time"
)

// Config holds audio gate settings.
type Config struct {
	// LoudThreshold is the ambient level (0-100 scale) above which the
	// room is considered too loud to speak into.
	LoudThreshold float64 `json:"loud_threshold"`

	// QuietDuration is how long the room must stay below the threshold
	// after a loud sample before speech is permitted again.
	QuietDuration time.Duration `json:"quiet_duration"`

	// WindowSize is the number of recent samples kept for smoothing.
	WindowSize int `json:"window_size"`

	// SampleInterval is the cadence simulated sources emit levels at.
	SampleInterval time.Duration `json:"sample_interval"`
}

// DefaultConfig returns the default gate configuration.
func DefaultConfig() Config {
	return Config{
		LoudThreshold:  70,
		QuietDuration:  500 * time.Millisecond,
		WindowSize:     50,
		SampleInterval: 20 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.LoudThreshold <= 0 || c.LoudThreshold > 100 {
		return fmt.Errorf("loud threshold must be in (0, 100], got %f", c.LoudThreshold)
	}
	if c.QuietDuration <= 0 {
		return fmt.Errorf("quiet duration must be positive, got %v", c.QuietDuration)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %v", c.SampleInterval)
	}
	return nil
}
