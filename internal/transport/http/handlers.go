package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Session is the part of core.Session the bridge drives.
type Session interface {
	Snapshot(ctx context.Context) (core.State, error)
	Join(ctx context.Context, roomID string) error
	Leave(ctx context.Context) error
	Send(ctx context.Context, text string) error
	DismissError(ctx context.Context) error
}

// ViewHandlers provides HTTP handlers backed by one session.
type ViewHandlers struct {
	session Session
	log     *zerolog.Logger
}

// NewViewHandlers creates a new view handlers instance.
func NewViewHandlers(session Session, logger *zerolog.Logger) *ViewHandlers {
	return &ViewHandlers{session: session, log: logger}
}

// JoinRequest represents the join room request body.
type JoinRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

// SendRequest represents the send message request body.
type SendRequest struct {
	Text string `json:"text" binding:"required"`
}

// Status returns connection status, membership and the last error.
// GET /api/status
func (h *ViewHandlers) Status(c *gin.Context) {
	st, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, statusFromState(st))
}

// Messages returns the current room's message list.
// GET /api/messages
func (h *ViewHandlers) Messages(c *gin.Context) {
	st, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MessagesResponse{
		RoomID:   st.RoomID,
		Messages: messagesFromCore(st.Messages),
	})
}

// Send posts a message to the joined room and waits for the server's verdict.
// POST /api/messages
func (h *ViewHandlers) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}

	if err := h.session.Send(c.Request.Context(), req.Text); err != nil {
		h.fail(c, "send", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Join switches the session to a room and waits for the join to settle.
// PUT /api/room
func (h *ViewHandlers) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid join request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}

	if err := h.session.Join(c.Request.Context(), req.RoomID); err != nil {
		h.fail(c, "join", err)
		return
	}
	h.Status(c)
}

// Leave abandons the current room.
// DELETE /api/room
func (h *ViewHandlers) Leave(c *gin.Context) {
	if err := h.session.Leave(c.Request.Context()); err != nil {
		h.fail(c, "leave", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DismissError clears a transient error banner.
// POST /api/error/dismiss
func (h *ViewHandlers) DismissError(c *gin.Context) {
	if err := h.session.DismissError(c.Request.Context()); err != nil {
		h.fail(c, "dismiss", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ViewHandlers) snapshot(c *gin.Context) (core.State, bool) {
	st, err := h.session.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, "snapshot", err)
		return core.State{}, false
	}
	return st, true
}

func (h *ViewHandlers) fail(c *gin.Context, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn().Err(err).Str("op", op).Msg("bridge request failed")
	}
	c.JSON(status, errorResponse(err))
}
