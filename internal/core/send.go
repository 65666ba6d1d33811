package core

import (
	"strings"

	"github.com/vovakirdan/wirechat-client/internal/utils"
)

func (s *Session) send(text string, reply chan error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		reply <- ErrEmptyMessage
		return
	case s.status != StatusConnected:
		reply <- ErrNotConnected
		return
	case s.room.State != Joined:
		reply <- ErrNotJoined
		return
	}

	now := s.clock.Now()
	optimistic := Message{
		ID:         utils.NewTempID(now),
		RoomID:     s.room.RoomID,
		SenderID:   s.identity.senderID(),
		SenderName: s.identity.senderName(),
		Text:       text,
		CreatedAt:  now,
		Role:       RoleMember,
		Optimistic: true,
	}
	s.timeline.Append(optimistic)
	s.publishMessages()

	req := s.track(CommandSendRoomMessage, s.room.RoomID, s.opts.SendTimeout)
	req.tempID = optimistic.ID
	req.reply = reply

	if err := s.transmit(Command{Kind: CommandSendRoomMessage, ID: req.id, RoomID: req.roomID, Text: text}); err != nil {
		s.sendFailed(req, sendRejected("Failed to send message: "+err.Error()))
	}
}

// sendAcked always removes the optimistic entry. On success the durable copy
// arrives, or already arrived, as an inbound push with the server's id.
func (s *Session) sendAcked(req *request, ack Ack) {
	if !ack.OK {
		s.log.Warn().Str("room", req.roomID).Str("reason", ack.Reason).Msg("send rejected")
		s.sendFailed(req, sendRejected(ack.Reason))
		return
	}
	if !req.settle(nil) {
		return
	}
	if s.timeline.Remove(req.tempID) {
		s.publishMessages()
	}
}

func (s *Session) sendFailed(req *request, err *CoreError) {
	if !req.settle(err) {
		return
	}
	delete(s.pending, req.id)
	if s.timeline.Remove(req.tempID) {
		s.publishMessages()
	}
	s.report(err)
}

// rollbackSends settles every in-flight send with err and removes its optimistic entry.
func (s *Session) rollbackSends(err *CoreError) {
	removed := false
	for id, req := range s.pending {
		if req.kind != CommandSendRoomMessage {
			continue
		}
		req.settle(err)
		delete(s.pending, id)
		if s.timeline.Remove(req.tempID) {
			removed = true
		}
	}
	if removed {
		s.publishMessages()
	}
}
