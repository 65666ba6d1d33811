package ws

import (
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

const testToken = "secret"

// chatServer is a scripted backend: it authenticates by bearer token, answers
// hello, acks joins with history and echoes sent messages to the sender.
type chatServer struct {
	mu      sync.Mutex
	history map[string][]proto.MessageData
	reject  map[string]string // room -> join rejection reason
	frames  []proto.ClientFrame
	seq     int
}

func newChatServer() *chatServer {
	return &chatServer{
		history: make(map[string][]proto.MessageData),
		reject:  make(map[string]string),
	}
}

func startChatServer(t *testing.T, srv *chatServer) string {
	t.Helper()

	ts := httptest.NewServer(stdhttp.HandlerFunc(srv.serveWS))
	t.Cleanup(ts.Close)
	return strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
}

func (s *chatServer) received() []proto.ClientFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proto.ClientFrame(nil), s.frames...)
}

func (s *chatServer) serveWS(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var hello proto.ClientFrame
	if err := wsjson.Read(ctx, conn, &hello); err != nil || hello.Type != proto.TypeHello {
		return
	}
	var data proto.HelloData
	_ = json.Unmarshal(hello.Data, &data)
	if data.Token != testToken {
		_ = wsjson.Write(ctx, conn, proto.ServerFrame{
			Type:  proto.TypeError,
			Error: &proto.Error{Code: proto.ErrCodeUnauthorized, Msg: "bad token"},
		})
		return
	}
	if err := wsjson.Write(ctx, conn, proto.ServerFrame{Type: proto.TypeHello}); err != nil {
		return
	}

	for {
		var frame proto.ClientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}
		s.mu.Lock()
		s.frames = append(s.frames, frame)
		s.mu.Unlock()

		for _, out := range s.answer(frame) {
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return
			}
		}
	}
}

func (s *chatServer) answer(frame proto.ClientFrame) []proto.ServerFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch frame.Type {
	case proto.TypeJoin:
		var room proto.RoomData
		_ = json.Unmarshal(frame.Data, &room)
		if reason, ok := s.reject[room.RoomID]; ok {
			return []proto.ServerFrame{{
				Type:  proto.TypeError,
				ID:    frame.ID,
				Error: &proto.Error{Code: "forbidden", Msg: reason},
			}}
		}
		ack, _ := proto.NewServerFrame(proto.TypeAck, frame.ID, "", proto.AckData{OK: true, History: s.history[room.RoomID]})
		return []proto.ServerFrame{ack}

	case proto.TypeSend:
		var msg proto.SendData
		_ = json.Unmarshal(frame.Data, &msg)
		s.seq++
		stored := proto.MessageData{
			ID:         fmt.Sprintf("srv-%d", s.seq),
			RoomID:     msg.RoomID,
			SenderID:   "u1",
			SenderName: "alice",
			Text:       msg.Text,
			CreatedAt:  time.Date(2024, 1, 1, 12, 0, s.seq, 0, time.UTC),
		}
		s.history[msg.RoomID] = append(s.history[msg.RoomID], stored)
		event, _ := proto.NewServerFrame(proto.TypeEvent, "", proto.EventMessage, stored)
		ack, _ := proto.NewServerFrame(proto.TypeAck, frame.ID, "", proto.AckData{OK: true})
		return []proto.ServerFrame{event, ack}

	default:
		return nil
	}
}
