package capture

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Webcam is a Source backed by a local camera via OpenCV.
//
// Capture is not safe for concurrent use; the perception worker is the
// single driver. Open/Close may race with Capture only across reconnects,
// which the worker serializes itself.
type Webcam struct {
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	cap *gocv.VideoCapture

	seq        atomic.Uint64
	reconnects int
}

// NewWebcam creates a webcam source with the given configuration.
func NewWebcam(cfg Config, logger *slog.Logger) *Webcam {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webcam{
		cfg:    cfg,
		logger: logger.With("component", "capture.webcam"),
	}
}

// Open acquires the camera, retrying up to MaxOpenRetries times.
// A previously held device is released first so reconnects start clean.
func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap != nil {
		w.cap.Close()
		w.cap = nil
		w.reconnects++
		// Give the driver a moment to release the device.
		time.Sleep(500 * time.Millisecond)
	}

	var lastErr error
	for attempt := 1; attempt <= w.cfg.MaxOpenRetries; attempt++ {
		cap, err := gocv.OpenVideoCapture(w.cfg.DeviceID)
		if err != nil {
			lastErr = err
		} else if !cap.IsOpened() {
			cap.Close()
			lastErr = fmt.Errorf("capture: device %d did not open", w.cfg.DeviceID)
		} else {
			cap.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
			cap.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
			cap.Set(gocv.VideoCaptureFPS, float64(w.cfg.Framerate))
			// Small buffer so frames are always fresh, never backlogged.
			cap.Set(gocv.VideoCaptureBufferSize, 1)

			w.cap = cap
			w.logger.Info("camera opened",
				"device", w.cfg.DeviceID,
				"resolution", fmt.Sprintf("%dx%d", w.cfg.Width, w.cfg.Height),
			)
			return nil
		}

		w.logger.Warn("camera open failed",
			"attempt", attempt,
			"max", w.cfg.MaxOpenRetries,
			"error", lastErr,
		)
		if attempt < w.cfg.MaxOpenRetries {
			time.Sleep(2 * time.Second)
		}
	}

	return fmt.Errorf("capture: open device %d: %w", w.cfg.DeviceID, lastErr)
}

// Capture reads one frame, converts it to a luma plane, and encodes a JPEG.
func (w *Webcam) Capture() (*Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return nil, ErrNotOpen
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := w.cap.Read(&img); !ok || img.Empty() {
		return nil, ErrReadFailed
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	grayBytes, err := gray.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("capture: gray plane: %w", err)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
		[]int{gocv.IMWriteJpegQuality, w.cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("capture: jpeg encode: %w", err)
	}
	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	buf.Close()

	return &Frame{
		Seq:       w.seq.Add(1),
		Timestamp: time.Now(),
		Width:     img.Cols(),
		Height:    img.Rows(),
		Gray:      grayBytes,
		JPEG:      jpeg,
	}, nil
}

// Close releases the camera.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cap != nil {
		err := w.cap.Close()
		w.cap = nil
		return err
	}
	return nil
}

// Name returns "webcam".
func (w *Webcam) Name() string { return "webcam" }

// Reconnects returns how many times the device has been reacquired.
func (w *Webcam) Reconnects() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reconnects
}

// Verify Webcam implements Source at compile time.
var _ Source = (*Webcam)(nil)
