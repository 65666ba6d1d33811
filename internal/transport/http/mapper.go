package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Fatal bool   `json:"fatal,omitempty"`
}

// StatusResponse describes the session as a view renders it.
type StatusResponse struct {
	Status       string         `json:"status"`
	RoomID       string         `json:"room_id,omitempty"`
	Membership   string         `json:"membership"`
	InputEnabled bool           `json:"input_enabled"`
	Error        *ErrorResponse `json:"error,omitempty"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
	CreatedAt  string `json:"created_at"`
	Role       string `json:"role"`
	Optimistic bool   `json:"optimistic,omitempty"`
	System     bool   `json:"system,omitempty"`
}

// MessagesResponse wraps the message list of the current room.
type MessagesResponse struct {
	RoomID   string            `json:"room_id,omitempty"`
	Messages []MessageResponse `json:"messages"`
}

func statusFromState(st core.State) StatusResponse {
	resp := StatusResponse{
		Status:       st.Status.String(),
		RoomID:       st.RoomID,
		Membership:   st.Membership.String(),
		InputEnabled: st.InputEnabled(),
	}
	if st.Err != nil {
		e := errorResponse(st.Err)
		resp.Error = &e
	}
	return resp
}

func messagesFromCore(msgs []core.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageResponse{
			ID:         m.ID,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Text:       m.Text,
			CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
			Role:       string(m.Role),
			Optimistic: m.Optimistic,
			System:     m.IsSystem(),
		})
	}
	return out
}

func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Code: core.Code(err), Fatal: core.IsFatal(err)}
	var ce *core.CoreError
	if errors.As(err, &ce) {
		resp.Error = ce.Message
	}
	return resp
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyMessage), errors.Is(err, core.ErrRoomRequired):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotConnected), errors.Is(err, core.ErrNotJoined), errors.Is(err, core.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, core.ErrJoinRejected), errors.Is(err, core.ErrSendRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrJoinTimeout), errors.Is(err, core.ErrSendTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrClosed), core.IsFatal(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
