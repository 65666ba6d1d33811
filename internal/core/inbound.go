package core

import "fmt"

// receiveMessage appends a pushed message in arrival order unless its id is
// already present.
func (s *Session) receiveMessage(m Message) {
	m = Normalize(m)
	if m.RoomID == "" {
		m.RoomID = s.room.RoomID
	}
	if s.room.RoomID == "" || m.RoomID != s.room.RoomID {
		s.log.Debug().Str("room", m.RoomID).Str("id", m.ID).Msg("dropping message for untargeted room")
		return
	}
	if !s.timeline.Append(m) {
		s.log.Debug().Str("id", m.ID).Msg("duplicate message")
		return
	}
	s.publishMessages()
}

func (s *Session) receivePresence(push Push) {
	if !s.opts.SystemMessages {
		return
	}
	roomID := push.RoomID
	if roomID == "" {
		roomID = s.room.RoomID
	}
	if s.room.RoomID == "" || roomID != s.room.RoomID {
		return
	}

	name := push.User
	if name == "" {
		name = unknownParticipant
	}
	who := push.UserID
	if who == "" {
		who = name
	}
	at := push.At
	if at.IsZero() {
		at = s.clock.Now()
	}

	var id, text string
	switch push.Kind {
	case PushUserJoined:
		id = fmt.Sprintf("joined-%s-%d", who, at.UnixNano())
		text = name + " joined the chat"
	case PushUserLeft:
		id = fmt.Sprintf("left-%s-%d", who, at.UnixNano())
		text = name + " left the chat"
	default:
		return
	}

	if s.timeline.Append(SystemMessage(id, roomID, text, at)) {
		s.publishMessages()
	}
}
