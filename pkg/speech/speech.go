// Package speech provides voice synthesis for the companion.
//
// Providers implement the Provider interface so backends can be
// swapped without changing caller code. The Dispatcher serializes
// utterances, defers to the audio gate, and lets a newer utterance
// supersede one that has not been spoken yet.
package speech

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cinemate/go-cinemate/pkg/cognition"
)

// Utterance is one thing the companion wants to say.
type Utterance struct {
	// ID uniquely identifies this utterance.
	ID uuid.UUID `json:"id"`

	// Text is what to say.
	Text string `json:"text"`

	// Emotion is the delivery style.
	Emotion cognition.Emotion `json:"emotion"`

	// Reason is a short note on why this was said, kept for logs.
	Reason string `json:"reason"`

	// CreatedAt is when the utterance was decided.
	CreatedAt time.Time `json:"created_at"`
}

// NewUtterance creates an utterance with a fresh ID.
func NewUtterance(text string, emotion cognition.Emotion, reason string) *Utterance {
	return &Utterance{
		ID:        uuid.New(),
		Text:      text,
		Emotion:   emotion,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

// Provider defines the voice synthesis interface.
type Provider interface {
	// Synthesize converts text to audio using the given voice style.
	Synthesize(ctx context.Context, text string, style VoiceStyle) (*AudioResult, error)

	// Health checks provider connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to first byte in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., pcm_24000).
	Encoding Encoding

	// SampleRate in Hz.
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats.
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"
	EncodingULaw  Encoding = "ulaw_8000"
)

// SampleRateFromEncoding extracts the sample rate from an encoding.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM24:
		return 24000
	case EncodingPCM44:
		return 44100
	case EncodingULaw:
		return 8000
	default:
		return 24000
	}
}

// VoiceStyle controls voice characteristics for one utterance.
type VoiceStyle struct {
	// Stability controls voice consistency (0.0-1.0). Lower values
	// are more expressive, higher more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the
	// original sample (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0).
	Style float64

	// SpeakerBoost enhances speaker clarity.
	SpeakerBoost bool
}

// DefaultVoiceStyle returns the neutral delivery style.
func DefaultVoiceStyle() VoiceStyle {
	return VoiceStyle{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		SpeakerBoost:    true,
	}
}

// StyleForEmotion maps a cognition emotion to a voice style. Lower
// stability and higher style exaggeration make the voice livelier.
func StyleForEmotion(e cognition.Emotion) VoiceStyle {
	style := DefaultVoiceStyle()
	switch e {
	case cognition.EmotionEmpathetic:
		style.Stability = 0.35
		style.Style = 0.4
	case cognition.EmotionCheerful:
		style.Stability = 0.3
		style.Style = 0.6
	case cognition.EmotionCalm:
		style.Stability = 0.7
		style.Style = 0.1
	case cognition.EmotionConcerned:
		style.Stability = 0.45
		style.Style = 0.3
	}
	return style
}
