// Package keyframe decides which captured frames are worth expensive
// scene analysis.
//
// A frame is a keyframe when it is the first frame seen, when the
// configured maximum interval has elapsed since the last accepted
// keyframe, or when it is structurally dissimilar from the last accepted
// keyframe. Everything else is skipped so the downstream analysis rate is
// proportional to actual scene change, with a periodic floor for static
// scenes.
package keyframe

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinemate/go-cinemate/pkg/capture"
)

// Config holds keyframe detection parameters.
type Config struct {
	// SimilarityThreshold is the structural-similarity cutoff in (0,1).
	// Frames scoring below it are considered different enough to
	// re-analyze; lower means more sensitive.
	SimilarityThreshold float64

	// MaxInterval forces re-analysis after this much elapsed time
	// regardless of similarity.
	MaxInterval time.Duration
}

// DefaultConfig returns the recommended detection parameters.
// The high threshold keeps analysis calls rare on a mostly-static scene.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.95,
		MaxInterval:         15 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("keyframe: similarity threshold must be in (0,1), got %v", c.SimilarityThreshold)
	}
	if c.MaxInterval <= 0 {
		return fmt.Errorf("keyframe: max interval must be positive, got %v", c.MaxInterval)
	}
	return nil
}

// Detector evaluates frames against the last accepted keyframe.
//
// A true verdict updates the remembered frame and timestamp; a false
// verdict never mutates state, so re-evaluating unchanged input is
// repeatable.
type Detector struct {
	cfg    Config
	logger *slog.Logger

	mu           sync.Mutex
	prevGray     []byte
	prevWidth    int
	prevHeight   int
	lastAccepted time.Time
	hasPrev      bool

	evaluated uint64
	accepted  uint64
}

// New creates a Detector with the given configuration.
func New(cfg Config, logger *slog.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		cfg:    cfg,
		logger: logger.With("component", "keyframe"),
	}, nil
}

// Evaluate reports whether the frame should be sent for scene analysis.
func (d *Detector) Evaluate(f *capture.Frame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.evaluated++
	now := f.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	// First frame: always analyze.
	if !d.hasPrev {
		d.remember(f, now)
		d.logger.Debug("first frame accepted", "seq", f.Seq)
		return true
	}

	// Time-based trigger ensures periodic updates on static scenes.
	if elapsed := now.Sub(d.lastAccepted); elapsed >= d.cfg.MaxInterval {
		d.remember(f, now)
		d.logger.Debug("interval trigger", "seq", f.Seq, "elapsed", elapsed)
		return true
	}

	score, err := SSIM(d.prevGray, f.Gray, d.prevWidth, d.prevHeight, f.Width, f.Height)
	if err != nil {
		// Fail safe: a bad buffer skips analysis rather than crashing
		// the capture loop, and leaves state untouched.
		d.logger.Warn("similarity computation failed", "seq", f.Seq, "error", err)
		return false
	}

	if score < d.cfg.SimilarityThreshold {
		d.remember(f, now)
		d.logger.Debug("scene change", "seq", f.Seq, "ssim", score)
		return true
	}

	return false
}

// remember copies the frame's luma plane; the frame itself is borrowed
// and must not be retained.
func (d *Detector) remember(f *capture.Frame, now time.Time) {
	if cap(d.prevGray) < len(f.Gray) {
		d.prevGray = make([]byte, len(f.Gray))
	}
	d.prevGray = d.prevGray[:len(f.Gray)]
	copy(d.prevGray, f.Gray)
	d.prevWidth = f.Width
	d.prevHeight = f.Height
	d.lastAccepted = now
	d.hasPrev = true
	d.accepted++
}

// Stats returns how many frames were evaluated and accepted.
func (d *Detector) Stats() (evaluated, accepted uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.evaluated, d.accepted
}
