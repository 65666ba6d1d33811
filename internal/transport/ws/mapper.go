package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func commandToFrame(cmd core.Command) (proto.ClientFrame, error) {
	switch cmd.Kind {
	case core.CommandJoinRoom:
		return proto.NewClientFrame(proto.TypeJoin, cmd.ID, proto.RoomData{RoomID: cmd.RoomID})
	case core.CommandLeaveRoom:
		return proto.NewClientFrame(proto.TypeLeave, "", proto.RoomData{RoomID: cmd.RoomID})
	case core.CommandSendRoomMessage:
		return proto.NewClientFrame(proto.TypeSend, cmd.ID, proto.SendData{RoomID: cmd.RoomID, Text: cmd.Text})
	default:
		return proto.ClientFrame{}, fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}

// frameToPush maps a server frame. ok is false for frames with no meaning to
// the session, such as unknown events.
func frameToPush(frame proto.ServerFrame) (core.Push, bool, error) {
	switch frame.Type {
	case proto.TypeAck:
		var ack proto.AckData
		if err := unmarshalData(frame.Data, &ack); err != nil {
			return core.Push{}, false, fmt.Errorf("decode ack: %w", err)
		}
		reason := ack.Reason
		if reason == "" {
			reason = ack.Message
		}
		history := make([]core.Message, 0, len(ack.History))
		for _, m := range ack.History {
			history = append(history, messageFromData(m))
		}
		return core.Push{
			Kind:  core.PushAck,
			AckID: frame.ID,
			Ack:   core.Ack{OK: ack.OK, Reason: reason, History: history},
		}, true, nil

	case proto.TypeError:
		if frame.ID == "" {
			if frame.Error == nil {
				return core.Push{}, false, errors.New("server error without details")
			}
			return core.Push{}, false, fmt.Errorf("server error %s: %s", frame.Error.Code, frame.Error.Msg)
		}
		// an error answering a request fails that request
		reason := ""
		if frame.Error != nil {
			reason = frame.Error.Msg
		}
		return core.Push{Kind: core.PushAck, AckID: frame.ID, Ack: core.Ack{Reason: reason}}, true, nil

	case proto.TypeEvent:
		return eventToPush(frame)

	default:
		return core.Push{}, false, nil
	}
}

func eventToPush(frame proto.ServerFrame) (core.Push, bool, error) {
	switch frame.Event {
	case proto.EventMessage:
		var msg proto.MessageData
		if err := unmarshalData(frame.Data, &msg); err != nil {
			return core.Push{}, false, fmt.Errorf("decode message: %w", err)
		}
		return core.Push{Kind: core.PushMessage, Message: messageFromData(msg)}, true, nil

	case proto.EventUserJoined, proto.EventUserLeft:
		var user proto.UserEventData
		if err := unmarshalData(frame.Data, &user); err != nil {
			return core.Push{}, false, fmt.Errorf("decode %s: %w", frame.Event, err)
		}
		kind := core.PushUserJoined
		if frame.Event == proto.EventUserLeft {
			kind = core.PushUserLeft
		}
		return core.Push{Kind: kind, RoomID: user.RoomID, UserID: user.UserID, User: user.Username}, true, nil

	default:
		return core.Push{}, false, nil
	}
}

func messageFromData(m proto.MessageData) core.Message {
	return core.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
		Role:       core.ParseRole(m.UserType),
	}
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
