// Package capture provides video frame acquisition for the companion pipeline.
//
// A Source produces Frames one at a time at whatever cadence the caller
// drives it. The webcam source wraps OpenCV via gocv and handles transient
// read failures with automatic reconnection. The mock source generates
// synthetic frames so the full pipeline can run without a camera.
package capture

import (
	"time"
)

// Frame is a single captured video frame.
//
// Frames are produced and owned by the Source. Downstream consumers borrow
// a frame for the duration of one pipeline iteration and must not retain
// references past it.
type Frame struct {
	// Seq is a monotonic sequence number assigned by the source.
	Seq uint64

	// Timestamp is the capture time.
	Timestamp time.Time

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Gray is the single-channel luma plane, row-major, one byte per pixel.
	// Used for structural-similarity comparison.
	Gray []byte

	// JPEG is the encoded color frame, used for scene analysis and the
	// dashboard preview.
	JPEG []byte
}

// Clone returns a deep copy that may be retained past the pipeline
// iteration the original was borrowed for.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Gray = append([]byte(nil), f.Gray...)
	c.JPEG = append([]byte(nil), f.JPEG...)
	return &c
}

// Source captures frames from a camera or a synthetic generator.
type Source interface {
	// Open acquires the underlying device. Safe to call again after a
	// failure to reconnect.
	Open() error

	// Capture reads one frame. Transient failures return an error and the
	// caller decides whether to retry or reconnect.
	Capture() (*Frame, error)

	// Close releases the device.
	Close() error

	// Name returns the backend name (e.g. "webcam", "mock").
	Name() string
}

// Stats tracks source-level capture counters.
type Stats struct {
	FramesCaptured      uint64 `json:"frames_captured"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Reconnects          int    `json:"reconnects"`
}
