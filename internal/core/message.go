package core

import (
	"strings"
	"time"
)

// SystemSenderID marks messages synthesized by the client rather than written by a user.
const SystemSenderID = "system"

const (
	systemSenderName     = "System"
	unknownSenderName    = "Unknown"
	optimisticSenderID   = "me"
	optimisticSenderName = "You"
	unknownParticipant   = "Someone"
)

// Role is the author's standing in the community.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
	RoleMember  Role = "member"
)

// ParseRole maps a wire value to a Role, defaulting to member.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCreator:
		return RoleCreator
	default:
		return RoleMember
	}
}

// Message is the domain model for a chat message.
type Message struct {
	ID         string
	RoomID     string
	SenderID   string
	SenderName string
	Text       string
	CreatedAt  time.Time
	Role       Role
	// Optimistic is set on entries rendered before the server confirmed them.
	Optimistic bool
}

// IsSystem reports whether the message was generated by the client for a room event.
func (m Message) IsSystem() bool {
	return m.SenderID == SystemSenderID
}

// DerivedID builds the fallback identifier used when the server omits one.
func DerivedID(senderID string, createdAt time.Time) string {
	return senderID + "-" + createdAt.UTC().Format(time.RFC3339Nano)
}

// Normalize fills in defaults for a message received from the server.
func Normalize(m Message) Message {
	if m.ID == "" {
		m.ID = DerivedID(m.SenderID, m.CreatedAt)
	}
	if m.SenderName == "" {
		m.SenderName = unknownSenderName
	}
	m.Role = ParseRole(string(m.Role))
	m.Optimistic = false
	return m
}

// Identity is the local user as known to the view that opened the session.
type Identity struct {
	ID          string
	DisplayName string
}

func (i Identity) senderID() string {
	if i.ID == "" {
		return optimisticSenderID
	}
	return i.ID
}

func (i Identity) senderName() string {
	if i.DisplayName == "" {
		return optimisticSenderName
	}
	return i.DisplayName
}

// SystemMessage synthesizes a room notice such as a participant joining or leaving.
func SystemMessage(id, roomID, text string, at time.Time) Message {
	return Message{
		ID:         id,
		RoomID:     roomID,
		SenderID:   SystemSenderID,
		SenderName: systemSenderName,
		Text:       text,
		CreatedAt:  at,
		Role:       RoleAdmin,
	}
}
