package ws

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Conn is an established session. One goroutine may Send while another Recvs.
type Conn struct {
	ws  *websocket.Conn
	log *zerolog.Logger
}

func newConn(ws *websocket.Conn, logger *zerolog.Logger) *Conn {
	return &Conn{ws: ws, log: logger}
}

// Send writes cmd as a client frame.
func (c *Conn) Send(ctx context.Context, cmd core.Command) error {
	frame, err := commandToFrame(cmd)
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, c.ws, frame); err != nil {
		return fmt.Errorf("write %s: %w", frame.Type, err)
	}
	return nil
}

// Recv reads frames until one maps to a push. Frames the client does not
// understand are logged and skipped.
func (c *Conn) Recv(ctx context.Context) (core.Push, error) {
	for {
		var frame proto.ServerFrame
		if err := wsjson.Read(ctx, c.ws, &frame); err != nil {
			return core.Push{}, err
		}

		push, ok, err := frameToPush(frame)
		if err != nil {
			c.log.Warn().Err(err).Str("type", frame.Type).Str("event", frame.Event).Msg("skipping server frame")
			continue
		}
		if !ok {
			c.log.Debug().Str("type", frame.Type).Str("event", frame.Event).Msg("ignoring server frame")
			continue
		}
		return push, nil
	}
}

// Close performs a normal closure.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}
