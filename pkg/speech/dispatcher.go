package speech

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Gate answers whether the companion may speak right now.
type Gate interface {
	IsSpeechPermitted() bool
}

// alwaysOpen is used when no gate is configured.
type alwaysOpen struct{}

func (alwaysOpen) IsSpeechPermitted() bool { return true }

// DispatcherStats tracks dispatcher counters.
type DispatcherStats struct {
	Spoken     uint64 `json:"spoken"`
	Superseded uint64 `json:"superseded"`
	Failures   uint64 `json:"failures"`
}

// Dispatcher serializes speech output. Utterances are enqueued
// without blocking; at most one is pending, and a newer one replaces
// a pending one that has not started synthesis yet. Dispatch waits
// for the audio gate before speaking.
type Dispatcher struct {
	provider Provider
	gate     Gate
	logger   *slog.Logger

	// sink receives finished audio together with its utterance.
	sink func(*Utterance, *AudioResult)

	// OnSpoken, if set, is called after an utterance is delivered.
	OnSpoken func(*Utterance, *AudioResult)

	gatePoll time.Duration

	mu      sync.Mutex
	pending *Utterance
	notify  chan struct{}

	spoken     atomic.Uint64
	superseded atomic.Uint64
	failures   atomic.Uint64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithGate sets the audio gate dispatch defers to.
func WithGate(gate Gate) DispatcherOption {
	return func(d *Dispatcher) {
		d.gate = gate
	}
}

// WithAudioSink sets the sink that receives synthesized audio.
func WithAudioSink(sink func(*Utterance, *AudioResult)) DispatcherOption {
	return func(d *Dispatcher) {
		d.sink = sink
	}
}

// NewDispatcher creates a dispatcher for the given provider.
func NewDispatcher(provider Provider, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		provider: provider,
		gate:     alwaysOpen{},
		logger:   logger.With("component", "speech.dispatcher"),
		gatePoll: 50 * time.Millisecond,
		notify:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue schedules an utterance for dispatch. It never blocks. If an
// utterance is already pending it is superseded by this one.
func (d *Dispatcher) Enqueue(u *Utterance) {
	if u == nil || u.Text == "" {
		return
	}

	d.mu.Lock()
	if d.pending != nil {
		d.superseded.Add(1)
		d.logger.Debug("utterance superseded",
			"old", d.pending.ID, "new", u.ID)
	}
	d.pending = u
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Run dispatches utterances until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		u, err := d.take(ctx)
		if err != nil {
			return err
		}
		if err := d.waitForGate(ctx); err != nil {
			return err
		}

		// The gate wait may have let a newer utterance land; speak
		// whatever is freshest.
		if fresher := d.takeIfPending(); fresher != nil {
			u = fresher
		}

		d.speak(ctx, u)
	}
}

func (d *Dispatcher) take(ctx context.Context) (*Utterance, error) {
	for {
		if u := d.takeIfPending(); u != nil {
			return u, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-d.notify:
		}
	}
}

func (d *Dispatcher) takeIfPending() *Utterance {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.pending
	d.pending = nil
	return u
}

func (d *Dispatcher) waitForGate(ctx context.Context) error {
	for !d.gate.IsSpeechPermitted() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.gatePoll):
		}
	}
	return nil
}

func (d *Dispatcher) speak(ctx context.Context, u *Utterance) {
	result, err := d.provider.Synthesize(ctx, u.Text, StyleForEmotion(u.Emotion))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.failures.Add(1)
		d.logger.Error("synthesis failed",
			"utterance", u.ID, "error", err)
		return
	}

	if d.sink != nil {
		d.sink(u, result)
	}
	d.spoken.Add(1)
	d.logger.Info("utterance spoken",
		"utterance", u.ID,
		"emotion", u.Emotion,
		"chars", result.CharCount,
		"duration", result.Duration)

	if d.OnSpoken != nil {
		d.OnSpoken(u, result)
	}
}

// Stats returns a snapshot of dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Spoken:     d.spoken.Load(),
		Superseded: d.superseded.Load(),
		Failures:   d.failures.Load(),
	}
}
