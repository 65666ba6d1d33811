package core

// join targets roomID and returns a channel that receives the outcome of the
// attempt that will settle it.
func (s *Session) join(roomID string) chan error {
	if roomID == s.room.RoomID && s.room.active() {
		if s.room.State == Joined {
			ch := make(chan error, 1)
			ch <- nil
			return ch
		}
		return s.room.addWaiter()
	}

	if roomID != s.room.RoomID {
		s.abandonRoom(cancelled("join superseded by room " + roomID))
		s.room.RoomID = roomID
	}
	wait := s.room.addWaiter()

	if s.status == StatusConnected {
		s.startJoin()
	} else {
		// joined once the transport is up
		s.setMembership(NotJoined)
	}
	return wait
}

// rejoin re-runs the join for the targeted room after a (re)connect.
func (s *Session) rejoin() {
	if s.room.RoomID == "" || s.room.active() {
		return
	}
	s.startJoin()
}

func (s *Session) startJoin() {
	req := s.track(CommandJoinRoom, s.room.RoomID, s.opts.JoinTimeout)
	s.room.join = req
	s.setMembership(Joining)
	s.log.Debug().Str("room", req.roomID).Str("request_id", req.id).Msg("joining room")

	if err := s.transmit(Command{Kind: CommandJoinRoom, ID: req.id, RoomID: req.roomID}); err != nil {
		s.joinFailed(req, joinRejected("Failed to join room: "+err.Error()))
	}
}

func (s *Session) joinAcked(req *request, ack Ack) {
	if !ack.OK {
		s.log.Warn().Str("room", req.roomID).Str("reason", ack.Reason).Msg("join rejected")
		s.joinFailed(req, joinRejected(ack.Reason))
		return
	}
	if !req.settle(nil) {
		return
	}

	history := make([]Message, 0, len(ack.History))
	for _, m := range ack.History {
		m = Normalize(m)
		if m.RoomID == "" {
			m.RoomID = req.roomID
		}
		history = append(history, m)
	}
	s.timeline.Seed(history)
	s.setMembership(Joined)
	s.log.Info().Str("room", req.roomID).Int("history", s.timeline.Len()).Msg("joined room")
	s.publishMessages()
	s.room.settleWaiters(nil)
}

func (s *Session) joinFailed(req *request, err *CoreError) {
	if !req.settle(err) {
		return
	}
	delete(s.pending, req.id)
	s.setMembership(JoinFailed)
	s.report(err)
	s.room.settleWaiters(err)
}

// abandonRoom leaves the targeted room: a fire-and-forget leave goes out if the
// room was Joining or Joined, its timers stop and its local state is dropped.
func (s *Session) abandonRoom(err *CoreError) {
	prev := s.room.RoomID
	if prev == "" {
		return
	}
	if s.conn != nil && s.room.active() {
		if sendErr := s.transmit(Command{Kind: CommandLeaveRoom, RoomID: prev}); sendErr != nil {
			s.log.Debug().Err(sendErr).Str("room", prev).Msg("leave not delivered")
		}
	}

	s.cancelJoin(err)
	s.room.settleWaiters(err)
	s.rollbackSends(err)
	s.timeline.Reset()
	s.room = Membership{}
	s.log.Debug().Str("room", prev).Msg("left room")
	s.setMembership(NotJoined)
	s.publishMessages()
}

// suspendRoom drops the membership after the transport went away but keeps
// the room targeted so it is joined again on reconnect. Join waiters keep waiting.
func (s *Session) suspendRoom(err *CoreError) {
	s.cancelJoin(err)
	s.rollbackSends(err)
	if s.room.RoomID != "" {
		s.setMembership(NotJoined)
	}
}

func (s *Session) cancelJoin(err *CoreError) {
	if s.room.join == nil {
		return
	}
	s.room.join.settle(err)
	delete(s.pending, s.room.join.id)
	s.room.join = nil
}

func (s *Session) setMembership(state MembershipState) {
	s.room.State = state
	s.publish(Event{Kind: EventMembership, Status: s.status, RoomID: s.room.RoomID, Membership: state})
}
