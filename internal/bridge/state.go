package bridge

// State is the bridge's connection lifecycle state.
//
//	Disconnected -> Connecting -> Subscribed -> Disconnected -> Terminated
//	Connecting -> Terminated (failed connect, after the grace period)
//
// Terminated is absorbing: once reached, every later event is ignored.
type State int32

// Lifecycle states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateTerminated
)

// String returns the lower-case state name used in logs.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
