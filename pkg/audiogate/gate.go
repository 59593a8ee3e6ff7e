// Package audiogate decides whether the room is quiet enough for the
// companion to speak. It keeps a short window of ambient loudness
// samples and applies a hysteresis: once a loud sample is seen, speech
// stays blocked until the room has been quiet for a configured span.
package audiogate

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Gate tracks ambient loudness and answers whether speaking now would
// talk over the user or the scene.
type Gate struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	window   []float64
	head     int
	count    int
	current  float64
	lastLoud time.Time
	sawLoud  bool

	observed atomic.Uint64
}

// New creates a gate with the given configuration.
func New(cfg Config, logger *slog.Logger) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		cfg:    cfg,
		logger: logger.With("component", "audiogate"),
		window: make([]float64, cfg.WindowSize),
	}, nil
}

// Observe records one ambient loudness sample on the 0-100 scale.
// Samples outside the scale are clamped.
func (g *Gate) Observe(level float64) {
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.window[g.head] = level
	g.head = (g.head + 1) % len(g.window)
	if g.count < len(g.window) {
		g.count++
	}
	g.current = level

	if level > g.cfg.LoudThreshold {
		if !g.sawLoud {
			g.logger.Debug("ambient loudness crossed threshold", "level", level)
		}
		g.lastLoud = time.Now()
		g.sawLoud = true
	}

	g.observed.Add(1)
}

// IsSpeechPermitted reports whether the companion may speak right now.
// Speech is blocked while the latest sample is above the threshold and
// for QuietDuration after the most recent loud sample. Before any loud
// sample has ever been observed, speech is permitted.
func (g *Gate) IsSpeechPermitted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.count > 0 && g.current > g.cfg.LoudThreshold {
		return false
	}
	if !g.sawLoud {
		return true
	}
	return time.Since(g.lastLoud) >= g.cfg.QuietDuration
}

// CurrentLevel returns the most recently observed sample, or 0 if
// nothing has been observed yet.
func (g *Gate) CurrentLevel() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.count == 0 {
		return 0
	}
	return g.current
}

// SmoothedLevel returns the mean of the samples currently in the
// window, or 0 if nothing has been observed yet.
func (g *Gate) SmoothedLevel() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < g.count; i++ {
		sum += g.window[i]
	}
	return sum / float64(g.count)
}

// Observed returns the total number of samples recorded.
func (g *Gate) Observed() uint64 {
	return g.observed.Load()
}
