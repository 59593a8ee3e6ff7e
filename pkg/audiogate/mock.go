package audiogate

import (
	"context"
	"sync"
)

// MockSource is a scripted level source for testing. It replays the
// configured levels in order, then blocks until stopped.
type MockSource struct {
	// ReadFunc overrides Read when set.
	ReadFunc func(ctx context.Context) (float64, error)

	mu      sync.Mutex
	levels  []float64
	pos     int
	running bool
	stopCh  chan struct{}
	reads   int
}

// NewMockSource creates a mock source that replays the given levels.
func NewMockSource(levels ...float64) *MockSource {
	return &MockSource{levels: levels}
}

// Start marks the source as running.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrAlreadyStarted
	}
	m.running = true
	m.stopCh = make(chan struct{})
	return nil
}

// Read returns the next scripted level, or blocks once the script is
// exhausted.
func (m *MockSource) Read(ctx context.Context) (float64, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx)
	}

	m.mu.Lock()
	m.reads++
	if m.pos < len(m.levels) {
		level := m.levels[m.pos]
		m.pos++
		m.mu.Unlock()
		return level, nil
	}
	stop := m.stopCh
	m.mu.Unlock()

	if stop == nil {
		return 0, ErrSourceStopped
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-stop:
		return 0, ErrSourceStopped
	}
}

// Stream replays the scripted levels on a channel and closes it.
func (m *MockSource) Stream() <-chan float64 {
	m.mu.Lock()
	remaining := append([]float64(nil), m.levels[m.pos:]...)
	m.pos = len(m.levels)
	m.mu.Unlock()

	ch := make(chan float64, len(remaining))
	for _, level := range remaining {
		ch <- level
	}
	close(ch)
	return ch
}

// Stop halts the source.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil
	}
	m.running = false
	close(m.stopCh)
	return nil
}

// Name returns "mock".
func (m *MockSource) Name() string { return "mock" }

// Reads returns how many times Read was called.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

var _ LevelSource = (*MockSource)(nil)
