package capture

import "errors"

// Sentinel errors for capture failures.
var (
	// ErrNotOpen is returned when Capture is called before Open succeeds.
	ErrNotOpen = errors.New("capture: source not open")

	// ErrReadFailed is returned on a transient frame read failure.
	// The caller may retry; repeated failures warrant a reconnect.
	ErrReadFailed = errors.New("capture: frame read failed")
)
