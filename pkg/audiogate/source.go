package audiogate

import "context"

// LevelSource emits ambient loudness samples on the 0-100 scale.
type LevelSource interface {
	// Start begins sampling. After Start, levels are available via
	// Read or Stream.
	Start(ctx context.Context) error

	// Read returns the next level, blocking until one is available.
	// Returns ErrSourceStopped when the source is stopped.
	Read(ctx context.Context) (float64, error)

	// Stream returns a channel that receives levels. The channel is
	// closed when the source is stopped.
	Stream() <-chan float64

	// Stop halts sampling. It is safe to call Stop multiple times.
	Stop() error

	// Name returns the backend name (e.g., "simulated", "mock").
	Name() string
}
