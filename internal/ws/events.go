package ws

import (
	"encoding/json"
	"fmt"
)

const maxChatLen = 200

// Inbound is the closed set of client frame types. Anything outside it
// is a decode error, answered with an error frame.
type Inbound interface{ kind() string }

type JoinZone struct {
	ZoneID string  `json:"zoneId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type PlayerMove struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Anim string  `json:"anim"`
}

type ZoneChat struct {
	Text string `json:"text"`
}

type GlobalChat struct {
	Text string `json:"text"`
}

type DirectMessage struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

func (JoinZone) kind() string      { return "joinZone" }
func (PlayerMove) kind() string    { return "playerMove" }
func (ZoneChat) kind() string      { return "zoneChat" }
func (GlobalChat) kind() string    { return "globalChat" }
func (DirectMessage) kind() string { return "dm" }

// DecodeInbound parses a raw frame into its typed event.
func DecodeInbound(data []byte) (Inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid message format")
	}

	var (
		ev   Inbound
		text *string
	)
	switch env.Type {
	case "joinZone":
		var e JoinZone
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("invalid message format")
		}
		if e.ZoneID == "" {
			return nil, fmt.Errorf("zoneId required")
		}
		ev = e
	case "playerMove":
		var e PlayerMove
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("invalid message format")
		}
		ev = e
	case "zone", "zoneChat":
		var e ZoneChat
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("invalid message format")
		}
		ev, text = e, &e.Text
	case "global", "globalChat":
		var e GlobalChat
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("invalid message format")
		}
		ev, text = e, &e.Text
	case "dm":
		var e DirectMessage
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("invalid message format")
		}
		if e.RecipientID == "" {
			return nil, fmt.Errorf("recipientId required")
		}
		ev, text = e, &e.Text
	default:
		return nil, fmt.Errorf("unknown message type")
	}

	if text != nil {
		if *text == "" {
			return nil, fmt.Errorf("text required")
		}
		if len(*text) > maxChatLen {
			return nil, fmt.Errorf("text too long")
		}
	}
	return ev, nil
}

// PlayerState is one zone member's presence, as sent in zoneState.
type PlayerState struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Anim     string  `json:"anim"`
}

// Outbound frames. Each carries its own type tag.

type connEstablished struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type zoneState struct {
	Type    string        `json:"type"`
	MyID    string        `json:"myId"`
	Players []PlayerState `json:"players"`
}

type userJoined struct {
	Type     string  `json:"type"`
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	ZoneID   string  `json:"zoneId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Anim     string  `json:"anim"`
}

type userLeft struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type playerMoved struct {
	Type   string  `json:"type"`
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Anim   string  `json:"anim"`
}

// chatOut is shared by zoneChat, globalChat and dm frames.
type chatOut struct {
	Type       string `json:"type"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Ts         int64  `json:"ts"`
}

type errFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encode(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func errorFrame(msg string) []byte {
	return encode(errFrame{Type: "error", Message: msg})
}
