package core

// Status is the state of the transport session.
type Status int

const (
	// StatusDisconnected means no transport session exists.
	StatusDisconnected Status = iota
	// StatusConnecting means the first handshake is in progress.
	StatusConnecting
	// StatusConnected means the session is established and authenticated.
	StatusConnected
	// StatusReconnecting means the transport was lost and bounded retries are running.
	StatusReconnecting
	// StatusFatalError means the session gave up; it will not retry on its own.
	StatusFatalError
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusFatalError:
		return "fatal_error"
	default:
		return "unknown"
	}
}

// MembershipState tracks the join protocol for the targeted room.
type MembershipState int

const (
	NotJoined MembershipState = iota
	Joining
	Joined
	JoinFailed
)

func (s MembershipState) String() string {
	switch s {
	case NotJoined:
		return "not_joined"
	case Joining:
		return "joining"
	case Joined:
		return "joined"
	case JoinFailed:
		return "join_failed"
	default:
		return "unknown"
	}
}
