package proto

import (
	"encoding/json"
	"time"
)

const (
	ProtocolVersion = 1

	TypeHello = "hello"
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypeSend  = "send"

	TypeAck   = "ack"
	TypeEvent = "event"
	TypeError = "error"

	EventMessage    = "message"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"

	ErrCodeUnauthorized = "unauthorized"
)

// ClientFrame is the envelope for frames the client sends. ID is set on
// requests that expect an acknowledgement.
type ClientFrame struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerFrame is the envelope for frames the server sends.
type ServerFrame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// HelloData authenticates the connection.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// RoomData addresses a join or leave at a room.
type RoomData struct {
	RoomID string `json:"roomId"`
}

// SendData is a chat message from the client.
type SendData struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// AckData answers a join or send request.
type AckData struct {
	OK      bool          `json:"ok"`
	Reason  string        `json:"reason,omitempty"`
	Message string        `json:"message,omitempty"`
	History []MessageData `json:"history,omitempty"`
}

// MessageData is a chat message as the server serializes it.
type MessageData struct {
	ID         string    `json:"id,omitempty"`
	RoomID     string    `json:"roomId,omitempty"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	UserType   string    `json:"userType,omitempty"`
}

// UserEventData notifies that a participant joined or left a room.
type UserEventData struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// NewClientFrame marshals data into a frame of the given type.
func NewClientFrame(typ, id string, data any) (ClientFrame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return ClientFrame{}, err
	}
	return ClientFrame{Type: typ, ID: id, Data: raw}, nil
}

// NewServerFrame marshals data into a server frame. Used by test servers.
func NewServerFrame(typ, id, event string, data any) (ServerFrame, error) {
	frame := ServerFrame{Type: typ, ID: id, Event: event}
	if data == nil {
		return frame, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ServerFrame{}, err
	}
	frame.Data = raw
	return frame, nil
}
