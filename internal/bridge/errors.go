package bridge

import "errors"

// Fatal conditions reported by Run.
var (
	// ErrConnectFailed is returned when the initial broker connection fails.
	// It is reported only after the connect grace period has elapsed.
	ErrConnectFailed = errors.New("bridge: initial connection failed")

	// ErrDisconnected is returned when an established broker connection is lost.
	ErrDisconnected = errors.New("bridge: connection lost")

	// ErrSubscribeFailed is returned when the subscription cannot be set up
	// after connecting.
	ErrSubscribeFailed = errors.New("bridge: subscribe failed")

	// ErrWriteFailed is returned when a point cannot be written to the database.
	ErrWriteFailed = errors.New("bridge: write failed")

	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("bridge: already started")
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConnectFailed = 2
)

// ExitCode maps the error returned by Run to a process exit status.
//
// nil (signal-driven shutdown) maps to 0, a failed initial connection to 2,
// and every other error, including a lost connection, to 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConnectFailed):
		return ExitConnectFailed
	default:
		return ExitFailure
	}
}
