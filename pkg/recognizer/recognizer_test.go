package recognizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/cinemate/go-cinemate/pkg/recognizer"
)

func TestDetectDistress(t *testing.T) {
	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"Help me please", "help", true},
		{"I've fallen and I can't get up", "fallen", true},
		{"my chest feels tight", "chest", true},
		{"I can't breathe", "can't breathe", true},
		{"what a lovely film", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			kw, ok := recognizer.DetectDistress(tt.text)
			if ok != tt.want {
				t.Fatalf("DetectDistress(%q) = %v, want %v", tt.text, ok, tt.want)
			}
			if ok && kw != tt.keyword {
				t.Errorf("keyword = %q, want %q", kw, tt.keyword)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want recognizer.Kind
	}{
		{"plain speech", "this actor looks familiar", recognizer.KindUtterance},
		{"wake phrase", "Hey CineMate, what film is this?", recognizer.KindWake},
		{"distress", "somebody help me", recognizer.KindDistress},
		{"distress outranks wake", "hey cinemate, help!", recognizer.KindDistress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := recognizer.Classify(tt.text, recognizer.DefaultWakePhrase)
			if ev.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %q, want %q", tt.text, ev.Kind, tt.want)
			}
			if ev.Timestamp.IsZero() {
				t.Error("expected timestamp to be set")
			}
		})
	}
}

func TestScriptedListener(t *testing.T) {
	s := recognizer.NewScripted("", []recognizer.Line{
		{After: time.Millisecond, Text: "what a view"},
		{After: time.Millisecond, Text: "hey cinemate, hello"},
		{After: time.Millisecond, Text: "help, I've fallen"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if err := s.Start(ctx); err != recognizer.ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted on double start, got %v", err)
	}

	wantKinds := []recognizer.Kind{
		recognizer.KindUtterance,
		recognizer.KindWake,
		recognizer.KindDistress,
	}

	for i, want := range wantKinds {
		select {
		case ev := <-s.Events():
			if ev.Kind != want {
				t.Errorf("event %d: kind = %q, want %q", i, ev.Kind, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	// Stopping closes the channel.
	s.Stop()
	select {
	case _, ok := <-s.Events():
		if ok {
			t.Error("expected closed channel after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after stop")
	}
}
