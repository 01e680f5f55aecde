package meter

import "errors"

// Domain errors for the meter reader.
var (
	// ErrOpenFailed is returned when the serial device cannot be opened.
	ErrOpenFailed = errors.New("meter: cannot open device")

	// ErrPublishFailed is returned when a reading cannot be published.
	ErrPublishFailed = errors.New("meter: publish failed")
)
