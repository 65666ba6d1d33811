package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/utils"
)

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = time.Second
	DefaultJoinTimeout       = 10 * time.Second
	DefaultSendTimeout       = 5 * time.Second
	DefaultWriteTimeout      = 5 * time.Second

	defaultEventBuffer = 256
)

// Options tunes a Session. Zero values take the defaults above.
type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	JoinTimeout       time.Duration
	SendTimeout       time.Duration
	WriteTimeout      time.Duration
	// SystemMessages turns participant join/leave pushes into system messages.
	SystemMessages bool
	// Chronological orders the timeline by CreatedAt instead of arrival.
	Chronological bool
	EventBuffer   int
	Clock         clock.Clock
}

func (o Options) withDefaults() Options {
	if o.ReconnectAttempts <= 0 {
		o.ReconnectAttempts = DefaultReconnectAttempts
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = DefaultJoinTimeout
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// Session is the client side of one room-bearing view: a transport session,
// at most one room membership and that room's message list.
//
// All protocol state is owned by the goroutine running Run. Public methods
// post closures to it and wait for their reply.
type Session struct {
	transport Transport
	opts      Options
	clock     clock.Clock
	log       *zerolog.Logger

	ops       chan func()
	events    chan Event
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	// Owned by the Run goroutine.
	status      Status
	credential  string
	identity    Identity
	conn        Conn
	gen         int
	attempts    int
	retry       *clock.Timer
	openWaiters []chan error
	room        Membership
	timeline    *Timeline
	pending     map[string]*request
	lastErr     error
}

// NewSession creates a session bound to transport. Run must be started before
// any other method is used.
func NewSession(transport Transport, logger *zerolog.Logger, opts Options) *Session {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		transport: transport,
		opts:      opts,
		clock:     opts.Clock,
		log:       logger,
		ops:       make(chan func(), 64),
		events:    make(chan Event, opts.EventBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		timeline:  NewTimeline(opts.Chronological),
		pending:   make(map[string]*request),
	}
}

// Run processes session events until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) {
	defer close(s.events)
	defer close(s.done)
	defer s.teardown()

	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Events returns the stream of notifications for the presentation layer.
// Events are dropped if the consumer falls behind; Snapshot is authoritative.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Open connects with credential on behalf of self and blocks until the session
// is Connected or has failed for good.
func (s *Session) Open(ctx context.Context, credential string, self Identity) error {
	if strings.TrimSpace(credential) == "" {
		s.post(func() { s.report(errCredential) })
		return errCredential
	}

	reply := make(chan error, 1)
	if !s.post(func() { s.open(credential, self, reply) }) {
		return ErrClosed
	}
	return s.await(ctx, reply)
}

// Join targets roomID, leaving any other room, and blocks until the join settles.
func (s *Session) Join(ctx context.Context, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrRoomRequired
	}

	waiter := make(chan chan error, 1)
	if !s.post(func() { waiter <- s.join(roomID) }) {
		return ErrClosed
	}

	select {
	case reply := <-waiter:
		return s.await(ctx, reply)
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Leave abandons the current room without closing the session.
func (s *Session) Leave(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.abandonRoom(cancelled("left room"))
		return nil
	})
}

// Send posts text to the joined room and blocks until it is confirmed,
// rejected or timed out. Precondition failures return without side effects.
func (s *Session) Send(ctx context.Context, text string) error {
	reply := make(chan error, 1)
	if !s.post(func() { s.send(text, reply) }) {
		return ErrClosed
	}
	return s.await(ctx, reply)
}

// Snapshot returns the current view state.
func (s *Session) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if !s.post(func() { reply <- s.state() }) {
		return State{}, ErrClosed
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.done:
		return State{}, ErrClosed
	}
}

// DismissError clears the last transient error. Fatal errors stay.
func (s *Session) DismissError(ctx context.Context) error {
	return s.call(ctx, func() error {
		if s.lastErr != nil && !IsFatal(s.lastErr) {
			s.lastErr = nil
		}
		return nil
	})
}

// Close tears the session down and waits for Run to return. It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *Session) post(op func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ops <- op:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) call(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	if !s.post(func() { reply <- fn() }) {
		return ErrClosed
	}
	return s.await(ctx, reply)
}

func (s *Session) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		// teardown settles every waiter before done is closed
		select {
		case err := <-reply:
			return err
		default:
			return ErrClosed
		}
	}
}

func (s *Session) state() State {
	return State{
		Status:     s.status,
		RoomID:     s.room.RoomID,
		Membership: s.room.State,
		Messages:   s.timeline.Messages(),
		Err:        s.lastErr,
	}
}

func (s *Session) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Debug().Str("event", ev.Kind.String()).Msg("event dropped, slow consumer")
	}
}

func (s *Session) publishMessages() {
	s.publish(Event{Kind: EventMessages, RoomID: s.room.RoomID, Messages: s.timeline.Messages()})
}

func (s *Session) report(err *CoreError) {
	s.lastErr = err
	s.log.Debug().Str("code", err.Code).Msg(err.Message)
	s.publish(Event{Kind: EventError, Status: s.status, RoomID: s.room.RoomID, Err: err})
}

// transmit writes cmd on the current connection.
func (s *Session) transmit(cmd Command) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.WriteTimeout)
	defer cancel()
	if err := s.conn.Send(ctx, cmd); err != nil {
		s.log.Warn().Err(err).Str("command", cmd.Kind.String()).Str("room", cmd.RoomID).Msg("transmit failed")
		return fmt.Errorf("transmit %s: %w", cmd.Kind, err)
	}
	return nil
}

// track registers a correlated request and arms its timeout.
func (s *Session) track(kind CommandKind, roomID string, timeout time.Duration) *request {
	req := &request{id: utils.NewCorrelationID(), kind: kind, roomID: roomID}
	s.pending[req.id] = req
	req.timer = s.clock.AfterFunc(timeout, func() {
		s.post(func() { s.expire(req) })
	})
	return req
}

func (s *Session) expire(req *request) {
	if req.done {
		return
	}
	switch req.kind {
	case CommandJoinRoom:
		s.log.Warn().Str("room", req.roomID).Msg("join timed out")
		s.joinFailed(req, errJoinTimeout)
	case CommandSendRoomMessage:
		s.log.Warn().Str("room", req.roomID).Str("temp_id", req.tempID).Msg("send timed out")
		s.sendFailed(req, errSendTimeout)
	}
}

func (s *Session) acknowledge(id string, ack Ack) {
	req, ok := s.pending[id]
	if !ok {
		s.log.Debug().Str("ack_id", id).Msg("ignoring ack for unknown or settled request")
		return
	}
	delete(s.pending, id)
	switch req.kind {
	case CommandJoinRoom:
		s.joinAcked(req, ack)
	case CommandSendRoomMessage:
		s.sendAcked(req, ack)
	}
}

func (s *Session) teardown() {
	s.stopRetry()

	err := cancelled("session closed")
	s.abandonRoom(err)
	s.settleOpen(err)
	s.dropConn()
	s.cancel()
	s.setStatus(StatusDisconnected)
	s.log.Debug().Msg("session closed")
}
