package scene

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinemate/go-cinemate/pkg/capture"
)

// MockAnalyzer is a mock implementation of Analyzer for testing.
type MockAnalyzer struct {
	// AnalyzeFunc overrides the default Analyze behavior when set.
	AnalyzeFunc func(ctx context.Context, frame *capture.Frame) (*Observation, error)

	// Caption is returned by the default Analyze behavior.
	Caption string

	// Err, if set, is returned by every Analyze call.
	Err error

	// Latency, if set, delays every Analyze call.
	Latency time.Duration

	mu    sync.Mutex
	calls []uint64
}

// NewMockAnalyzer creates a mock analyzer returning the given caption.
func NewMockAnalyzer(caption string) *MockAnalyzer {
	return &MockAnalyzer{Caption: caption}
}

// Analyze returns a canned observation, or the configured error.
func (m *MockAnalyzer) Analyze(ctx context.Context, frame *capture.Frame) (*Observation, error) {
	var seq uint64
	if frame != nil {
		seq = frame.Seq
	}
	m.mu.Lock()
	m.calls = append(m.calls, seq)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, frame)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	obs := &Observation{
		ID:          uuid.New(),
		Timestamp:   time.Now(),
		FrameSeq:    seq,
		Caption:     m.Caption,
		Tags:        []string{"mock"},
		PeopleCount: 1,
		Confidence:  0.9,
	}
	if frame != nil && !frame.Timestamp.IsZero() {
		obs.Timestamp = frame.Timestamp
	}
	return obs, nil
}

// Name returns "mock".
func (m *MockAnalyzer) Name() string { return "mock" }

// CallCount returns how many times Analyze was called.
func (m *MockAnalyzer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the frame sequence numbers Analyze was called with.
func (m *MockAnalyzer) Calls() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.calls...)
}

// Reset clears recorded calls.
func (m *MockAnalyzer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Analyzer = (*MockAnalyzer)(nil)
