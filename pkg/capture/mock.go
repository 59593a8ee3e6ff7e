package capture

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mock is a Source for testing and demo mode.
// By default it generates a fixed horizontal gradient frame, so
// consecutive frames are identical and an occasional scene change can
// be injected with ShiftScene.
type Mock struct {
	// CaptureFunc overrides frame generation when set.
	CaptureFunc func() (*Frame, error)

	// OpenErr, when set, is returned from Open.
	OpenErr error

	Width  int
	Height int

	mu     sync.Mutex
	offset byte
	opened bool

	seq      atomic.Uint64
	captures atomic.Int64
}

const (
	defaultMockWidth  = 64
	defaultMockHeight = 48
)

// NewMock creates a mock source producing 64x48 gradient frames.
func NewMock() *Mock {
	return &Mock{Width: defaultMockWidth, Height: defaultMockHeight}
}

// Open marks the source as open.
func (m *Mock) Open() error {
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.mu.Lock()
	m.opened = true
	m.mu.Unlock()
	return nil
}

// Capture returns the next synthetic frame.
func (m *Mock) Capture() (*Frame, error) {
	m.captures.Add(1)
	if m.CaptureFunc != nil {
		return m.CaptureFunc()
	}

	m.mu.Lock()
	if !m.opened {
		m.mu.Unlock()
		return nil, ErrNotOpen
	}
	// A zero-value Mock still produces usable frames.
	if m.Width == 0 {
		m.Width = defaultMockWidth
	}
	if m.Height == 0 {
		m.Height = defaultMockHeight
	}
	w, h := m.Width, m.Height
	offset := m.offset
	m.mu.Unlock()

	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = byte(x*255/w) + offset
		}
	}

	return &Frame{
		Seq:       m.seq.Add(1),
		Timestamp: time.Now(),
		Width:     w,
		Height:    h,
		Gray:      gray,
		// A tiny valid-enough payload; the mock analyzer ignores it.
		JPEG: []byte{0xff, 0xd8, 0xff, 0xd9},
	}, nil
}

// ShiftScene changes the gradient offset so the next frame differs
// structurally from previous ones.
func (m *Mock) ShiftScene(delta byte) {
	m.mu.Lock()
	m.offset += delta
	m.mu.Unlock()
}

// Close marks the source as closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.opened = false
	m.mu.Unlock()
	return nil
}

// Name returns "mock".
func (m *Mock) Name() string { return "mock" }

// Captures returns how many times Capture was called.
func (m *Mock) Captures() int64 { return m.captures.Load() }

// Verify Mock implements Source at compile time.
var _ Source = (*Mock)(nil)
