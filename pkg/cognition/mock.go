package cognition

import (
	"context"
	"sync"
	"time"
)

// MockReasoner is a mock implementation of Reasoner for testing.
type MockReasoner struct {
	// DecideFunc overrides the default Decide behavior when set.
	DecideFunc func(ctx context.Context, req *Request) (*Decision, error)

	// Decision is returned by the default Decide behavior.
	Decision *Decision

	// Err, if set, is returned by every Decide call.
	Err error

	// Latency, if set, delays every Decide call.
	Latency time.Duration

	mu    sync.Mutex
	calls []*Request
}

// NewMockReasoner creates a mock that always stays silent.
func NewMockReasoner() *MockReasoner {
	return &MockReasoner{
		Decision: &Decision{
			ShouldSpeak: false,
			Emotion:     EmotionNeutral,
			Reasoning:   "mock default",
		},
	}
}

// Decide returns the canned decision, or the configured error.
func (m *MockReasoner) Decide(ctx context.Context, req *Request) (*Decision, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	d := *m.Decision
	return &d, nil
}

// Name returns "mock".
func (m *MockReasoner) Name() string { return "mock" }

// CallCount returns how many times Decide was called.
func (m *MockReasoner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent request, or nil.
func (m *MockReasoner) LastCall() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// Reset clears recorded calls.
func (m *MockReasoner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

var _ Reasoner = (*MockReasoner)(nil)
