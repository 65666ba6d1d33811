package core

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

var errRefused = errors.New("connection refused")

type fakeTransport struct {
	mu       sync.Mutex
	dials    int
	failures int // fail this many dials before succeeding; -1 fails forever
	reject   bool
	conns    chan *fakeConn
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{conns: make(chan *fakeConn, 16)}
}

func (f *fakeTransport) Dial(_ context.Context, credential string) (Conn, error) {
	f.mu.Lock()
	f.dials++
	n := f.dials
	failures := f.failures
	reject := f.reject
	f.mu.Unlock()

	if reject {
		return nil, &CoreError{Code: "unauthorized", Message: "invalid token " + credential, Err: ErrHandshakeRejected}
	}
	if failures < 0 || n <= failures {
		return nil, errRefused
	}
	conn := newFakeConn()
	f.conns <- conn
	return conn, nil
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

type fakeConn struct {
	sent      chan Command
	pushes    chan Push
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		sent:   make(chan Command, 64),
		pushes: make(chan Push, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Send(_ context.Context, cmd Command) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.sent <- cmd
	return nil
}

func (c *fakeConn) Recv(ctx context.Context) (Push, error) {
	select {
	case p := <-c.pushes:
		return p, nil
	case <-c.closed:
		return Push{}, io.EOF
	case <-ctx.Done():
		return Push{}, ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(p Push) {
	c.pushes <- p
}

func (c *fakeConn) ack(id string, ack Ack) {
	c.push(Push{Kind: PushAck, AckID: id, Ack: ack})
}

func newTestSession(t *testing.T, tr Transport, opts Options) *Session {
	t.Helper()

	s := NewSession(tr, nil, opts)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		_ = s.Close()
		cancel()
	})
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// mustOpen opens s and returns the connection the transport handed out.
func mustOpen(t *testing.T, s *Session, tr *fakeTransport) *fakeConn {
	t.Helper()

	if err := s.Open(testContext(t), "token", Identity{ID: "u1", DisplayName: "alice"}); err != nil {
		t.Fatalf("open: %v", err)
	}
	return mustConn(t, tr)
}

func mustConn(t *testing.T, tr *fakeTransport) *fakeConn {
	t.Helper()

	select {
	case conn := <-tr.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a connection to be dialed")
		return nil
	}
}

func mustCommand(t *testing.T, conn *fakeConn, kind CommandKind) Command {
	t.Helper()

	select {
	case cmd := <-conn.sent:
		if cmd.Kind != kind {
			t.Fatalf("expected %s command, got %+v", kind, cmd)
		}
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %s command not sent", kind)
		return Command{}
	}
}

func mustNoCommand(t *testing.T, conn *fakeConn) {
	t.Helper()

	select {
	case cmd := <-conn.sent:
		t.Fatalf("unexpected command %+v", cmd)
	case <-time.After(50 * time.Millisecond):
	}
}

// waitState polls the session until cond holds.
func waitState(t *testing.T, s *Session, cond func(State) bool) State {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var last State
	for time.Now().Before(deadline) {
		st, err := s.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if cond(st) {
			return st
		}
		last = st
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state condition not reached, last state: %+v", last)
	return last
}

func mustResult(t *testing.T, ch <-chan error) error {
	t.Helper()

	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("call did not return")
		return nil
	}
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind, match func(Event) bool) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed before %v", kind)
			}
			if ev.Kind == kind && (match == nil || match(ev)) {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return Event{}
		}
	}
}

// joinRoom drives a successful join of roomID with history.
func joinRoom(t *testing.T, s *Session, conn *fakeConn, roomID string, history ...Message) {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- s.Join(context.Background(), roomID) }()

	cmd := mustCommand(t, conn, CommandJoinRoom)
	if cmd.RoomID != roomID || cmd.ID == "" {
		t.Fatalf("unexpected join command: %+v", cmd)
	}
	conn.ack(cmd.ID, Ack{OK: true, History: history})
	if err := mustResult(t, done); err != nil {
		t.Fatalf("join %s: %v", roomID, err)
	}
}

func hasState(membership MembershipState) func(State) bool {
	return func(st State) bool { return st.Membership == membership }
}

func hasLen(n int) func(State) bool {
	return func(st State) bool { return len(st.Messages) == n }
}

func newMock() *clock.Mock {
	return clock.NewMock()
}
