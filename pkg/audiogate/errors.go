package audiogate

import "errors"

var (
	// ErrSourceStopped is returned by Read after the source stops.
	ErrSourceStopped = errors.New("audiogate: source stopped")

	// ErrAlreadyStarted is returned by Start on a running source.
	ErrAlreadyStarted = errors.New("audiogate: source already started")
)
