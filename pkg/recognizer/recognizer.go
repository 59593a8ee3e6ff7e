// Package recognizer turns recognized user speech into events the
// companion reacts to: plain utterances, the wake phrase, and
// distress signals that demand an immediate response.
package recognizer

import (
	"context"
	"strings"
	"time"
)

// Kind classifies a speech event.
type Kind string

const (
	// KindUtterance is ordinary user speech.
	KindUtterance Kind = "utterance"

	// KindWake means the user addressed the companion directly.
	KindWake Kind = "wake"

	// KindDistress means the speech contained a distress signal.
	KindDistress Kind = "distress"
)

// DefaultWakePhrase is what the user says to address the companion.
const DefaultWakePhrase = "hey cinemate"

// distressKeywords are checked as substrings of lowercased speech.
// Multi-word entries match phrases.
var distressKeywords = []string{
	"help",
	"fallen",
	"i fell",
	"hurt",
	"pain",
	"dizzy",
	"can't breathe",
	"cannot breathe",
	"chest",
	"emergency",
	"call someone",
	"call an ambulance",
}

// Event is one recognized piece of user speech.
type Event struct {
	// Kind classifies the event.
	Kind Kind `json:"kind"`

	// Text is the recognized speech.
	Text string `json:"text"`

	// Keyword is the matched distress keyword, for distress events.
	Keyword string `json:"keyword,omitempty"`

	// Timestamp is when the speech was recognized.
	Timestamp time.Time `json:"timestamp"`
}

// Listener produces speech events from some recognition backend.
type Listener interface {
	// Start begins listening. Events are delivered on Events until
	// the listener stops or ctx is done.
	Start(ctx context.Context) error

	// Events returns the event channel. It is closed when the
	// listener stops.
	Events() <-chan Event

	// Stop halts the listener. Safe to call multiple times.
	Stop() error

	// Name returns the backend name.
	Name() string
}

// DetectDistress reports whether text contains a distress keyword and
// returns the first match.
func DetectDistress(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, kw := range distressKeywords {
		if strings.Contains(lowered, kw) {
			return kw, true
		}
	}
	return "", false
}

// Classify builds an event from recognized text. Distress outranks
// the wake phrase: "hey cinemate, help" is a distress event.
func Classify(text, wakePhrase string) Event {
	ev := Event{
		Kind:      KindUtterance,
		Text:      strings.TrimSpace(text),
		Timestamp: time.Now(),
	}
	if kw, ok := DetectDistress(ev.Text); ok {
		ev.Kind = KindDistress
		ev.Keyword = kw
		return ev
	}
	if wakePhrase != "" && strings.Contains(strings.ToLower(ev.Text), strings.ToLower(wakePhrase)) {
		ev.Kind = KindWake
	}
	return ev
}
