package core

import "errors"

func (s *Session) open(credential string, self Identity, reply chan error) {
	if s.status != StatusDisconnected && s.status != StatusFatalError {
		reply <- ErrAlreadyOpen
		return
	}

	s.credential = credential
	s.identity = self
	s.attempts = 0
	s.lastErr = nil
	s.openWaiters = append(s.openWaiters, reply)
	s.setStatus(StatusConnecting)
	s.dial()
}

// dial starts one handshake attempt. The result is posted back to the loop
// tagged with the generation it was started under.
func (s *Session) dial() {
	s.gen++
	gen := s.gen
	credential := s.credential

	go func() {
		conn, err := s.transport.Dial(s.ctx, credential)
		if !s.post(func() { s.dialed(gen, conn, err) }) && conn != nil {
			_ = conn.Close()
		}
	}()
}

func (s *Session) dialed(gen int, conn Conn, err error) {
	if gen != s.gen || (s.status != StatusConnecting && s.status != StatusReconnecting) {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		s.dialFailed(err)
		return
	}

	s.conn = conn
	s.attempts = 0
	if s.lastErr != nil && !IsFatal(s.lastErr) {
		s.lastErr = nil
	}
	s.setStatus(StatusConnected)
	s.log.Info().Int("gen", gen).Msg("connected")
	s.settleOpen(nil)

	go s.receive(gen, conn)
	s.rejoin()
}

func (s *Session) dialFailed(err error) {
	if errors.Is(err, ErrHandshakeRejected) {
		s.log.Warn().Err(err).Msg("handshake rejected")
		s.fatal(coreError(ErrCodeHandshakeRejected, "Connection error: "+err.Error(), err))
		return
	}

	s.attempts++
	s.log.Warn().Err(err).Int("attempt", s.attempts).Int("max", s.opts.ReconnectAttempts).Msg("connect attempt failed")
	if s.attempts >= s.opts.ReconnectAttempts {
		s.fatal(errExhausted)
		return
	}
	s.report(coreError(ErrCodeConnectError, "Connection error: "+err.Error(), err))
	s.scheduleRetry()
}

// receive pumps pushes from conn into the loop until the connection fails.
func (s *Session) receive(gen int, conn Conn) {
	for {
		push, err := conn.Recv(s.ctx)
		if err != nil {
			s.post(func() { s.lost(gen, err) })
			return
		}
		if !s.post(func() { s.handlePush(gen, push) }) {
			return
		}
	}
}

func (s *Session) handlePush(gen int, push Push) {
	if gen != s.gen {
		return
	}
	switch push.Kind {
	case PushAck:
		s.acknowledge(push.AckID, push.Ack)
	case PushMessage:
		s.receiveMessage(push.Message)
	case PushUserJoined, PushUserLeft:
		s.receivePresence(push)
	}
}

// lost handles unexpected transport loss: room membership does not survive it.
func (s *Session) lost(gen int, err error) {
	if gen != s.gen || s.status != StatusConnected {
		return
	}
	s.log.Warn().Err(err).Msg("transport lost")

	s.dropConn()
	s.suspendRoom(cancelled("connection lost"))
	s.attempts = 0
	s.setStatus(StatusReconnecting)
	s.report(errTransport)
	s.scheduleRetry()
}

func (s *Session) scheduleRetry() {
	s.stopRetry()
	gen := s.gen
	s.retry = s.clock.AfterFunc(s.opts.ReconnectDelay, func() {
		s.post(func() {
			if gen != s.gen || s.retry == nil {
				return
			}
			s.retry = nil
			s.dial()
		})
	})
}

func (s *Session) stopRetry() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

func (s *Session) fatal(err *CoreError) {
	s.stopRetry()
	s.dropConn()
	s.suspendRoom(err)
	s.room.settleWaiters(err)
	s.setStatus(StatusFatalError)
	s.report(err)
	s.settleOpen(err)
}

// dropConn closes the current connection and invalidates its callbacks.
func (s *Session) dropConn() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.log.Debug().Err(err).Msg("close transport")
	}
	s.conn = nil
	s.gen++
}

func (s *Session) settleOpen(err error) {
	for _, ch := range s.openWaiters {
		ch <- err
	}
	s.openWaiters = nil
}

func (s *Session) setStatus(st Status) {
	if s.status == st {
		return
	}
	s.log.Debug().Str("from", s.status.String()).Str("to", st.String()).Msg("status")
	s.status = st
	s.publish(Event{Kind: EventStatus, Status: st, RoomID: s.room.RoomID, Membership: s.room.State})
}
