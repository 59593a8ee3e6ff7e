package audiogate

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Simulated is a level source that models a living room with a
// television: mostly moderate ambient noise with occasional loud
// bursts (dialogue peaks, action scenes, the user talking).
type Simulated struct {
	cfg    Config
	logger *slog.Logger
	rng    *rand.Rand

	mu      sync.Mutex
	running bool
	levelCh chan float64
	stopCh  chan struct{}
	done    chan struct{}
}

// SimulatedOption configures a Simulated source.
type SimulatedOption func(*Simulated)

// WithSeed fixes the random seed for reproducible runs.
func WithSeed(seed int64) SimulatedOption {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSimulated creates a simulated ambient loudness source.
func NewSimulated(cfg Config, logger *slog.Logger, opts ...SimulatedOption) *Simulated {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulated{
		cfg:    cfg,
		logger: logger.With("component", "audiogate"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins emitting levels at the configured sample interval.
func (s *Simulated) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}
	s.running = true
	s.levelCh = make(chan float64, 16)
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.levelCh, s.stopCh, s.done)

	s.logger.Info("simulated level source started",
		"interval", s.cfg.SampleInterval)
	return nil
}

func (s *Simulated) run(ctx context.Context, out chan<- float64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			select {
			case out <- s.next():
			default:
				// Nobody is reading fast enough; drop the sample.
			}
		}
	}
}

// next draws one loudness sample. Roughly one sample in ten is a loud
// burst in the 70-90 range; the rest sit in the 30-55 band.
func (s *Simulated) next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng.Float64() < 0.1 {
		return 70 + s.rng.Float64()*20
	}
	return 30 + s.rng.Float64()*25
}

// Read returns the next level.
func (s *Simulated) Read(ctx context.Context) (float64, error) {
	s.mu.Lock()
	ch := s.levelCh
	s.mu.Unlock()

	if ch == nil {
		return 0, ErrSourceStopped
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case level, ok := <-ch:
		if !ok {
			return 0, ErrSourceStopped
		}
		return level, nil
	}
}

// Stream returns the level channel.
func (s *Simulated) Stream() <-chan float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levelCh
}

// Stop halts the source.
func (s *Simulated) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// Name returns "simulated".
func (s *Simulated) Name() string { return "simulated" }

var _ LevelSource = (*Simulated)(nil)
