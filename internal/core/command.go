package core

import (
	"context"
	"time"
)

// CommandKind describes what the client asks of the server.
type CommandKind int

const (
	// CommandJoinRoom requests membership and history for a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom notifies the server the client left a room. It is never acknowledged.
	CommandLeaveRoom
	// CommandSendRoomMessage posts a chat message to a room.
	CommandSendRoomMessage
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join"
	case CommandLeaveRoom:
		return "leave"
	case CommandSendRoomMessage:
		return "send"
	default:
		return "unknown"
	}
}

// Command is a request sent to the server. ID correlates the acknowledgement
// and is empty for fire-and-forget commands.
type Command struct {
	Kind   CommandKind
	ID     string
	RoomID string
	Text   string
}

// PushKind describes a frame delivered by the server.
type PushKind int

const (
	// PushAck acknowledges a correlated Command.
	PushAck PushKind = iota
	// PushMessage delivers a chat message not tied to any request.
	PushMessage
	// PushUserJoined notifies that a participant joined the room.
	PushUserJoined
	// PushUserLeft notifies that a participant left the room.
	PushUserLeft
)

// Ack is the payload of a PushAck.
type Ack struct {
	OK      bool
	Reason  string
	History []Message
}

// Push is a frame received from the server.
type Push struct {
	Kind    PushKind
	AckID   string
	Ack     Ack
	Message Message
	RoomID  string
	UserID  string
	User    string
	At      time.Time
}

// Transport opens authenticated sessions with the chat backend.
type Transport interface {
	// Dial performs the handshake. Errors wrapping ErrHandshakeRejected are not retried.
	Dial(ctx context.Context, credential string) (Conn, error)
}

// Conn is one established transport session.
type Conn interface {
	Send(ctx context.Context, cmd Command) error
	// Recv blocks until the next push arrives. Any error means the session is gone.
	Recv(ctx context.Context) (Push, error)
	Close() error
}
