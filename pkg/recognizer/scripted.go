package recognizer

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAlreadyStarted is returned by Start on a running listener.
var ErrAlreadyStarted = errors.New("recognizer: listener already started")

// Line is one scripted piece of user speech.
type Line struct {
	// After is how long to wait after the previous line.
	After time.Duration

	// Text is what the user says.
	Text string
}

// Scripted replays a fixed sequence of lines, classifying each as it
// goes. It backs demos and tests where no microphone exists.
type Scripted struct {
	wakePhrase string
	lines      []Line

	mu      sync.Mutex
	running bool
	events  chan Event
	stopCh  chan struct{}
}

// NewScripted creates a scripted listener.
func NewScripted(wakePhrase string, lines []Line) *Scripted {
	if wakePhrase == "" {
		wakePhrase = DefaultWakePhrase
	}
	return &Scripted{
		wakePhrase: wakePhrase,
		lines:      append([]Line(nil), lines...),
	}
}

// Start begins replaying the script.
func (s *Scripted) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStarted
	}
	s.running = true
	s.events = make(chan Event, 16)
	s.stopCh = make(chan struct{})

	go s.run(ctx, s.events, s.stopCh)
	return nil
}

func (s *Scripted) run(ctx context.Context, out chan<- Event, stop <-chan struct{}) {
	defer close(out)

	for _, line := range s.lines {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-time.After(line.After):
		}

		ev := Classify(line.Text, s.wakePhrase)
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}

	// Script exhausted; stay open until stopped.
	select {
	case <-ctx.Done():
	case <-stop:
	}
}

// Events returns the event channel.
func (s *Scripted) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Stop halts the listener.
func (s *Scripted) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)
	return nil
}

// Name returns "scripted".
func (s *Scripted) Name() string { return "scripted" }

var _ Listener = (*Scripted)(nil)
