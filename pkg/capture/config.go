package capture

import "fmt"

// Config holds camera capture parameters.
type Config struct {
	// DeviceID is the webcam index (0 = default camera).
	DeviceID int `json:"device_id"`

	// Width and Height request a capture resolution.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Framerate is the target FPS requested from the device.
	Framerate int `json:"framerate"`

	// Quality is the JPEG encode quality (1-100).
	Quality int `json:"quality"`

	// MaxOpenRetries bounds how many times Open attempts to acquire the
	// device before giving up.
	MaxOpenRetries int `json:"max_open_retries"`
}

// DefaultConfig returns the recommended capture configuration.
// 640x480 keeps similarity comparison and JPEG encoding cheap; the scene
// analyzer does not benefit from higher resolutions.
func DefaultConfig() Config {
	return Config{
		DeviceID:       0,
		Width:          640,
		Height:         480,
		Framerate:      30,
		Quality:        85,
		MaxOpenRetries: 3,
	}
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("capture: invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.Framerate <= 0 {
		return fmt.Errorf("capture: invalid framerate %d", c.Framerate)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("capture: quality must be 1-100, got %d", c.Quality)
	}
	return nil
}
