package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOpenWithoutCredentialNeverDials(t *testing.T) {
	tr := newFakeTransport()
	s := newTestSession(t, tr, Options{})

	err := s.Open(testContext(t), "  ", Identity{})
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("expected ErrCredentialMissing, got %v", err)
	}

	st := waitState(t, s, func(st State) bool { return st.Err != nil })
	if st.Status != StatusDisconnected {
		t.Fatalf("expected disconnected status, got %s", st.Status)
	}
	if !IsFatal(st.Err) || st.Err.Error() != "Please log in to use community chat" {
		t.Fatalf("expected persistent sign-in error, got %v", st.Err)
	}
	if n := tr.dialCount(); n != 0 {
		t.Fatalf("expected no dial, got %d", n)
	}
}

func TestOpenEmitsConnectingThenConnected(t *testing.T) {
	tr := newFakeTransport()
	s := newTestSession(t, tr, Options{})

	mustOpen(t, s, tr)

	mustEvent(t, s.Events(), EventStatus, func(ev Event) bool { return ev.Status == StatusConnecting })
	mustEvent(t, s.Events(), EventStatus, func(ev Event) bool { return ev.Status == StatusConnected })

	if err := s.Open(testContext(t), "token", Identity{}); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen on second open, got %v", err)
	}
}

func TestOpenHandshakeRejectedIsFatalWithoutRetry(t *testing.T) {
	tr := newFakeTransport()
	tr.reject = true
	s := newTestSession(t, tr, Options{ReconnectDelay: time.Millisecond})

	err := s.Open(testContext(t), "bad-token", Identity{})
	if !errors.Is(err, ErrHandshakeRejected) {
		t.Fatalf("expected ErrHandshakeRejected, got %v", err)
	}
	if Code(err) != ErrCodeHandshakeRejected {
		t.Fatalf("expected %s code, got %q", ErrCodeHandshakeRejected, Code(err))
	}

	time.Sleep(30 * time.Millisecond)
	if n := tr.dialCount(); n != 1 {
		t.Fatalf("expected a single dial, got %d", n)
	}
	st := waitState(t, s, func(st State) bool { return st.Status == StatusFatalError })
	if !IsFatal(st.Err) {
		t.Fatalf("expected fatal error in state, got %v", st.Err)
	}
}

func TestOpenRetryExhaustionIsFatal(t *testing.T) {
	tr := newFakeTransport()
	tr.failures = -1
	s := newTestSession(t, tr, Options{ReconnectDelay: time.Millisecond})

	err := s.Open(testContext(t), "token", Identity{})
	if !errors.Is(err, ErrReconnectExhausted) {
		t.Fatalf("expected ErrReconnectExhausted, got %v", err)
	}
	if n := tr.dialCount(); n != DefaultReconnectAttempts {
		t.Fatalf("expected %d dials, got %d", DefaultReconnectAttempts, n)
	}

	time.Sleep(50 * time.Millisecond)
	if n := tr.dialCount(); n != DefaultReconnectAttempts {
		t.Fatalf("expected no automatic retry after fatal error, got %d dials", n)
	}
	st := waitState(t, s, func(st State) bool { return st.Status == StatusFatalError })
	if st.Err == nil || st.Err.Error() != "Disconnected from chat" {
		t.Fatalf("expected persistent disconnected error, got %v", st.Err)
	}
}

func TestOpenRecoversAfterTransientFailures(t *testing.T) {
	tr := newFakeTransport()
	tr.failures = 2
	mock := newMock()
	s := newTestSession(t, tr, Options{Clock: mock})

	opened := make(chan error, 1)
	go func() { opened <- s.Open(context.Background(), "token", Identity{}) }()

	for attempt := 1; attempt <= 2; attempt++ {
		waitDials(t, tr, attempt)
		waitState(t, s, func(st State) bool { return st.Err != nil && Code(st.Err) == ErrCodeConnectError })
		if err := s.DismissError(context.Background()); err != nil {
			t.Fatalf("dismiss: %v", err)
		}
		mock.Add(DefaultReconnectDelay)
	}

	if err := mustResult(t, opened); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustConn(t, tr)
	if n := tr.dialCount(); n != 3 {
		t.Fatalf("expected 3 dials, got %d", n)
	}
}

func TestTransportLossReconnectsAndRejoins(t *testing.T) {
	tr := newFakeTransport()
	s := newTestSession(t, tr, Options{ReconnectDelay: time.Millisecond})

	conn := mustOpen(t, s, tr)
	joinRoom(t, s, conn, "alpha", Message{ID: "h1", SenderID: "u2", Text: "hi"})

	_ = conn.Close()

	next := mustConn(t, tr)
	cmd := mustCommand(t, next, CommandJoinRoom)
	if cmd.RoomID != "alpha" {
		t.Fatalf("expected rejoin of alpha, got %+v", cmd)
	}
	next.ack(cmd.ID, Ack{OK: true, History: []Message{{ID: "h1", SenderID: "u2", Text: "hi"}, {ID: "h2", SenderID: "u3", Text: "yo"}}})

	st := waitState(t, s, func(st State) bool { return st.Membership == Joined && len(st.Messages) == 2 })
	if st.Status != StatusConnected || st.RoomID != "alpha" {
		t.Fatalf("unexpected state after reconnect: %+v", st)
	}
}

func TestTransportLossRollsBackPendingSend(t *testing.T) {
	tr := newFakeTransport()
	s := newTestSession(t, tr, Options{ReconnectDelay: time.Hour})

	conn := mustOpen(t, s, tr)
	joinRoom(t, s, conn, "alpha")

	sent := make(chan error, 1)
	go func() { sent <- s.Send(context.Background(), "hello") }()
	mustCommand(t, conn, CommandSendRoomMessage)

	_ = conn.Close()

	if err := mustResult(t, sent); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	st := waitState(t, s, func(st State) bool { return st.Status == StatusReconnecting })
	if len(st.Messages) != 0 || st.Membership != NotJoined || st.RoomID != "alpha" {
		t.Fatalf("unexpected state after loss: %+v", st)
	}
	if !errors.Is(st.Err, ErrTransportLost) || IsFatal(st.Err) {
		t.Fatalf("expected transient transport error, got %v", st.Err)
	}
}

func TestCloseIsIdempotentAndCancelsWaiters(t *testing.T) {
	tr := newFakeTransport()
	mock := newMock()
	s := newTestSession(t, tr, Options{Clock: mock})

	conn := mustOpen(t, s, tr)
	joinRoom(t, s, conn, "alpha")

	sent := make(chan error, 1)
	go func() { sent <- s.Send(context.Background(), "hello") }()
	mustCommand(t, conn, CommandSendRoomMessage)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if err := mustResult(t, sent); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancellation for pending send, got %v", err)
	}
	leave := mustCommand(t, conn, CommandLeaveRoom)
	if leave.RoomID != "alpha" || leave.ID != "" {
		t.Fatalf("unexpected leave command: %+v", leave)
	}

	select {
	case <-conn.closed:
	default:
		t.Fatalf("expected transport to be closed")
	}

	mock.Add(time.Minute)

	if _, err := s.Snapshot(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if err := s.Send(context.Background(), "late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for send after close, got %v", err)
	}
}

func TestCloseDuringOpenSettlesWithCancellation(t *testing.T) {
	tr := newFakeTransport()
	tr.failures = -1
	s := newTestSession(t, tr, Options{ReconnectDelay: time.Hour})

	opened := make(chan error, 1)
	go func() { opened <- s.Open(context.Background(), "token", Identity{}) }()
	waitDials(t, tr, 1)
	waitState(t, s, func(st State) bool { return st.Err != nil })

	_ = s.Close()

	if err := mustResult(t, opened); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancellation for pending open, got %v", err)
	}
}

func waitDials(t *testing.T, tr *fakeTransport, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tr.dialCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d dials, got %d", n, tr.dialCount())
}
