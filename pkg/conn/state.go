package conn

// State is the lifecycle state of a Supervisor.
//
//	Idle → Connecting → Open → Reconnecting → Connecting → …
//	  any state ── Close() ──→ Closed (terminal)
type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateReconnecting:
		return "Reconnecting"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
