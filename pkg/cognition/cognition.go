// Package cognition decides whether the companion should speak, and
// what it should say, given the latest scene observation and any
// recent user speech.
package cognition

import (
	"context"

	"github.com/cinemate/go-cinemate/pkg/scene"
)

// Emotion is the delivery style attached to an utterance.
type Emotion string

const (
	EmotionEmpathetic Emotion = "empathetic"
	EmotionCheerful   Emotion = "cheerful"
	EmotionCalm       Emotion = "calm"
	EmotionConcerned  Emotion = "concerned"
	EmotionNeutral    Emotion = "neutral"
)

// Valid reports whether e is a known emotion.
func (e Emotion) Valid() bool {
	switch e {
	case EmotionEmpathetic, EmotionCheerful, EmotionCalm, EmotionConcerned, EmotionNeutral:
		return true
	}
	return false
}

// Trigger is what prompted a cognition pass.
type Trigger string

const (
	// TriggerKeyframe means a new scene observation arrived.
	TriggerKeyframe Trigger = "keyframe"

	// TriggerUtterance means the user said something.
	TriggerUtterance Trigger = "utterance"

	// TriggerInterval means the periodic check-in fired.
	TriggerInterval Trigger = "interval"

	// TriggerDistress means distress was detected in user speech.
	TriggerDistress Trigger = "distress"
)

// Request carries everything the reasoner may consider.
type Request struct {
	// Observation is the latest scene observation, if any.
	Observation *scene.Observation

	// UserUtterance is what the user just said, if anything.
	UserUtterance string

	// Trigger is what prompted this pass.
	Trigger Trigger

	// History holds the companion's recent utterances, oldest first.
	History []string

	// Entities maps known names (people, pets, film characters) to
	// short descriptions.
	Entities map[string]string
}

// Decision is the reasoner's verdict for one cognition pass.
type Decision struct {
	// ShouldSpeak reports whether the companion should say anything.
	ShouldSpeak bool `json:"should_speak"`

	// Emotion is the delivery style for Content.
	Emotion Emotion `json:"emotion"`

	// Content is the utterance text. Empty when ShouldSpeak is false.
	Content string `json:"content"`

	// Reasoning is the model's short justification, kept for logs.
	Reasoning string `json:"reasoning"`
}

// Reasoner produces decisions from requests.
type Reasoner interface {
	// Decide runs one cognition pass. It blocks until the model
	// responds or ctx is done.
	Decide(ctx context.Context, req *Request) (*Decision, error)

	// Name returns the reasoner backend name.
	Name() string
}
