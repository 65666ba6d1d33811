package core

// EventKind is a notification the session emits to the presentation layer.
type EventKind int

const (
	// EventStatus reports a connection status transition.
	EventStatus EventKind = iota
	// EventMembership reports a join protocol transition for the targeted room.
	EventMembership
	// EventMessages carries the room's message list after any change.
	EventMessages
	// EventError surfaces a failure. Fatal errors persist; others are dismissable.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventMembership:
		return "membership"
	case EventMessages:
		return "messages"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes what happened in the session.
type Event struct {
	Kind       EventKind
	Status     Status
	RoomID     string
	Membership MembershipState
	Messages   []Message
	Err        error
}

// State is a point-in-time copy of everything a view renders.
type State struct {
	Status     Status
	RoomID     string
	Membership MembershipState
	Messages   []Message
	Err        error
}

// InputEnabled reports whether the view should accept a draft.
func (s State) InputEnabled() bool {
	return s.Status == StatusConnected && s.Membership == Joined
}
