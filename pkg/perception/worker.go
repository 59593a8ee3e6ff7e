// Package perception runs the frame pipeline: capture at a steady
// cadence, keep only keyframes, and analyze those into scene
// observations. The capture loop never waits on the vision API; the
// two halves hand frames over through a latest-wins mailbox.
package perception

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cinemate/go-cinemate/pkg/capture"
	"github.com/cinemate/go-cinemate/pkg/keyframe"
	"github.com/cinemate/go-cinemate/pkg/scene"
)

// Stats tracks perception pipeline counters.
type Stats struct {
	FramesCaptured   uint64 `json:"frames_captured"`
	CaptureFailures  uint64 `json:"capture_failures"`
	Reconnects       uint64 `json:"reconnects"`
	Keyframes        uint64 `json:"keyframes"`
	KeyframeDrops    uint64 `json:"keyframe_drops"`
	Analyses         uint64 `json:"analyses"`
	AnalysisFailures uint64 `json:"analysis_failures"`
}

// Worker drives a capture source through keyframe detection and scene
// analysis, publishing observations for the cognition loop.
type Worker struct {
	cfg      Config
	source   capture.Source
	detector *keyframe.Detector
	analyzer scene.Analyzer
	logger   *slog.Logger

	// preview receives every captured frame, keyframe or not. The
	// frame is borrowed; the sink must not retain it.
	preview func(*capture.Frame)

	frames       *Mailbox[*capture.Frame]
	observations *Mailbox[*scene.Observation]

	framesCaptured   atomic.Uint64
	captureFailures  atomic.Uint64
	reconnects       atomic.Uint64
	keyframes        atomic.Uint64
	analyses         atomic.Uint64
	analysisFailures atomic.Uint64
}

// Option configures a Worker.
type Option func(*Worker)

// WithPreviewSink registers a sink that receives every captured frame.
func WithPreviewSink(sink func(*capture.Frame)) Option {
	return func(w *Worker) {
		w.preview = sink
	}
}

// NewWorker creates a perception worker.
func NewWorker(cfg Config, source capture.Source, detector *keyframe.Detector, analyzer scene.Analyzer, logger *slog.Logger, opts ...Option) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		cfg:          cfg,
		source:       source,
		detector:     detector,
		analyzer:     analyzer,
		logger:       logger.With("component", "perception", "source", source.Name()),
		frames:       NewMailbox[*capture.Frame](),
		observations: NewMailbox[*scene.Observation](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run opens the source and runs the capture and analysis loops until
// ctx is done. The source is closed on the way out.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.source.Open(); err != nil {
		return err
	}
	defer w.source.Close()

	w.logger.Info("perception worker started",
		"interval", w.cfg.CaptureInterval,
		"analyzer", w.analyzer.Name())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.captureLoop(ctx) })
	g.Go(func() error { return w.analyzeLoop(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) captureLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.CaptureInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := w.source.Capture()
		if err != nil {
			failures++
			w.captureFailures.Add(1)
			w.logger.Warn("capture failed",
				"consecutive_failures", failures, "error", err)

			if failures >= w.cfg.MaxConsecutiveFailures {
				if err := w.reconnect(ctx); err != nil {
					return err
				}
				failures = 0
			}
			continue
		}
		failures = 0
		w.framesCaptured.Add(1)

		if w.preview != nil {
			w.preview(frame)
		}

		if w.detector.Evaluate(frame) {
			w.keyframes.Add(1)
			// The frame buffer is reused on the next capture, so
			// the analysis half gets its own copy.
			w.frames.Put(frame.Clone())
		}
	}
}

func (w *Worker) reconnect(ctx context.Context) error {
	w.reconnects.Add(1)
	w.logger.Warn("too many consecutive capture failures, reconnecting")

	w.source.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.cfg.ReconnectDelay):
	}

	if err := w.source.Open(); err != nil {
		w.logger.Error("reconnect failed", "error", err)
	}
	return nil
}

func (w *Worker) analyzeLoop(ctx context.Context) error {
	for {
		frame, err := w.frames.Take(ctx)
		if err != nil {
			return err
		}

		obs, err := w.analyzer.Analyze(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.analysisFailures.Add(1)
			w.logger.Warn("scene analysis failed",
				"frame_seq", frame.Seq, "error", err)
			continue
		}
		w.analyses.Add(1)
		w.logger.Debug("scene observed",
			"frame_seq", obs.FrameSeq,
			"caption", obs.Caption,
			"people", obs.PeopleCount)
		w.observations.Put(obs)
	}
}

// Observations returns the mailbox the cognition loop reads from.
// Only the freshest unconsumed observation is retained.
func (w *Worker) Observations() *Mailbox[*scene.Observation] {
	return w.observations
}

// Stats returns a snapshot of pipeline counters.
func (w *Worker) Stats() Stats {
	return Stats{
		FramesCaptured:   w.framesCaptured.Load(),
		CaptureFailures:  w.captureFailures.Load(),
		Reconnects:       w.reconnects.Load(),
		Keyframes:        w.keyframes.Load(),
		KeyframeDrops:    w.frames.Drops(),
		Analyses:         w.analyses.Load(),
		AnalysisFailures: w.analysisFailures.Load(),
	}
}
