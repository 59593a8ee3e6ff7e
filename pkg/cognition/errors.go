package cognition

import "errors"

var (
	// ErrNoAPIKey indicates the reasoner was configured without a key.
	ErrNoAPIKey = errors.New("cognition: API key not set")

	// ErrNoChoices indicates the model returned an empty response.
	ErrNoChoices = errors.New("cognition: model returned no choices")

	// ErrEmptyRequest indicates Decide was called with nothing to
	// reason about.
	ErrEmptyRequest = errors.New("cognition: request has no observation or utterance")
)
