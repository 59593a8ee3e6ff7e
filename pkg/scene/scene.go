// Package scene turns captured video frames into structured scene
// observations using a vision model.
package scene

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cinemate/go-cinemate/pkg/capture"
)

// Observation is a structured description of what the camera saw.
type Observation struct {
	// ID uniquely identifies this observation.
	ID uuid.UUID `json:"id"`

	// Timestamp is when the source frame was captured.
	Timestamp time.Time `json:"timestamp"`

	// FrameSeq is the sequence number of the source frame.
	FrameSeq uint64 `json:"frame_seq"`

	// Caption is a one or two sentence description of the scene.
	Caption string `json:"caption"`

	// Tags are short labels for notable elements ("dog", "kitchen").
	Tags []string `json:"tags,omitempty"`

	// PeopleCount is how many people are visible.
	PeopleCount int `json:"people_count"`

	// Confidence is the model's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Analyzer produces observations from frames.
type Analyzer interface {
	// Analyze describes the given frame. It blocks until the model
	// responds or ctx is done.
	Analyze(ctx context.Context, frame *capture.Frame) (*Observation, error)

	// Name returns the analyzer backend name.
	Name() string
}
