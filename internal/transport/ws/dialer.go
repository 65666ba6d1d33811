// Package ws implements the session transport over WebSocket with JSON frames.
package ws

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

const defaultHandshakeTimeout = 10 * time.Second

// Dialer opens authenticated WebSocket sessions to the chat backend.
type Dialer struct {
	url              string
	handshakeTimeout time.Duration
	maxMessageBytes  int64
	client           *stdhttp.Client
	log              *zerolog.Logger
}

// NewDialer builds a dialer for url. A zero handshakeTimeout uses 10s and a
// zero maxMessageBytes keeps the library's read limit.
func NewDialer(url string, handshakeTimeout time.Duration, maxMessageBytes int64, logger *zerolog.Logger) *Dialer {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dialer{
		url:              url,
		handshakeTimeout: handshakeTimeout,
		maxMessageBytes:  maxMessageBytes,
		log:              logger,
	}
}

// WithHTTPClient sets the client used for the upgrade request.
func (d *Dialer) WithHTTPClient(client *stdhttp.Client) *Dialer {
	d.client = client
	return d
}

// Dial upgrades the connection with the credential as bearer token and
// completes the hello exchange.
func (d *Dialer) Dial(ctx context.Context, credential string) (core.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.handshakeTimeout)
	defer cancel()

	header := stdhttp.Header{}
	header.Set("Authorization", "Bearer "+credential)

	conn, resp, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{
		HTTPClient: d.client,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == stdhttp.StatusUnauthorized || resp.StatusCode == stdhttp.StatusForbidden) {
			return nil, fmt.Errorf("dial %s: status %d: %w", d.url, resp.StatusCode, core.ErrHandshakeRejected)
		}
		return nil, fmt.Errorf("dial %s: %w", d.url, err)
	}
	if d.maxMessageBytes > 0 {
		conn.SetReadLimit(d.maxMessageBytes)
	}

	if err := hello(ctx, conn, credential); err != nil {
		status := websocket.StatusProtocolError
		if errors.Is(err, core.ErrHandshakeRejected) {
			status = websocket.StatusPolicyViolation
		}
		_ = conn.Close(status, "handshake failed")
		return nil, err
	}

	d.log.Debug().Str("url", d.url).Msg("websocket session established")
	return newConn(conn, d.log), nil
}

func hello(ctx context.Context, conn *websocket.Conn, credential string) error {
	frame, err := proto.NewClientFrame(proto.TypeHello, "", proto.HelloData{
		Token:    credential,
		Protocol: proto.ProtocolVersion,
	})
	if err != nil {
		return fmt.Errorf("marshal hello: %w", err)
	}
	if err := wsjson.Write(ctx, conn, frame); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	var reply proto.ServerFrame
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}

	switch reply.Type {
	case proto.TypeHello:
		return nil
	case proto.TypeError:
		if reply.Error == nil {
			return errors.New("hello: server error")
		}
		if reply.Error.Code == proto.ErrCodeUnauthorized {
			return fmt.Errorf("hello: %s: %w", reply.Error.Msg, core.ErrHandshakeRejected)
		}
		return fmt.Errorf("hello: %s: %s", reply.Error.Code, reply.Error.Msg)
	default:
		return fmt.Errorf("hello: unexpected %q frame", reply.Type)
	}
}
