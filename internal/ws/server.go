package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/RaghavVerma19/ride-share-backend/internal/store"
	"github.com/RaghavVerma19/ride-share-backend/internal/stream"
	"github.com/RaghavVerma19/ride-share-backend/pkg/auth"
	"github.com/RaghavVerma19/ride-share-backend/pkg/metrics"
)

// TokenVerifier resolves a bearer credential to a user; the auth
// package provides the real one.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// MessageStore persists direct messages synchronously on send.
type MessageStore interface {
	InsertMessage(ctx context.Context, m store.Message) error
}

// Server accepts websocket connections and dispatches their frames.
// All live state lives in the hub; durable chat goes through the
// stream log (and, for DMs, straight into the store as well).
type Server struct {
	log     *slog.Logger
	hub     *Hub
	streams stream.Log
	db      MessageStore
	verify  TokenVerifier
}

func NewServer(logger *slog.Logger, hub *Hub, streams stream.Log, db MessageStore, verify TokenVerifier) *Server {
	return &Server{log: logger, hub: hub, streams: streams, db: db, verify: verify}
}

// ServeWS authenticates, upgrades, and runs a connection to completion.
// Frames from one socket are handled strictly in order; concurrency
// only exists across sockets.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := s.verify.Verify(auth.BearerFromRequest(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sock, err := Accept(w, r)
	if err != nil {
		s.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(id.UserID, id.UserName, sock)
	if old, oldZone := s.hub.Register(c); old != nil && oldZone != "" {
		// The displaced session was in a zone; its members see it leave.
		s.hub.ToZone(oldZone, encode(userLeft{Type: "userLeft", UserID: old.UserID, UserName: old.UserName}), c.UserID)
	}

	metrics.WSConnections.Inc()
	s.log.Info("ws.connected", "user", c.UserID)

	go c.WriteLoop(ctx)
	c.TrySend(encode(connEstablished{
		Type:      "connection_established",
		Message:   "Successfully connected to WebSocket server",
		Timestamp: time.Now().UnixMilli(),
	}))

	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		s.handleFrame(ctx, c, payload)
	}

	s.disconnect(c)
	c.Close()
	metrics.WSConnections.Dec()
	s.log.Info("ws.disconnected", "user", c.UserID)
}

// disconnect tears down registry + zone state exactly once, even if
// both the error and close paths get here.
func (s *Server) disconnect(c *Conn) {
	zone, removed := s.hub.Remove(c)
	if !removed || zone == "" {
		return
	}
	s.hub.ToZone(zone, encode(userLeft{Type: "userLeft", UserID: c.UserID, UserName: c.UserName}), c.UserID)
}

// handleFrame decodes and routes one inbound frame. Malformed input
// answers the sender and touches nothing else.
func (s *Server) handleFrame(ctx context.Context, c *Conn, payload []byte) {
	ev, err := DecodeInbound(payload)
	if err != nil {
		c.TrySend(errorFrame(err.Error()))
		return
	}
	metrics.WSFrames.WithLabelValues(ev.kind()).Inc()

	switch ev := ev.(type) {
	case JoinZone:
		s.handleJoin(c, ev)
	case PlayerMove:
		s.handleMove(c, ev)
	case ZoneChat:
		s.handleZoneChat(ctx, c, ev)
	case GlobalChat:
		s.handleGlobalChat(ctx, c, ev)
	case DirectMessage:
		s.handleDM(ctx, c, ev)
	}
}

func (s *Server) handleJoin(c *Conn, ev JoinZone) {
	prev, rejoined, ok := s.hub.JoinZone(c.UserID, ev.ZoneID, ev.X, ev.Y)
	if !ok {
		return
	}

	if prev != "" && !rejoined {
		s.hub.ToZone(prev, encode(userLeft{Type: "userLeft", UserID: c.UserID, UserName: c.UserName}), c.UserID)
	}

	// Full snapshot to the joiner only, then announce to the others.
	c.TrySend(encode(zoneState{
		Type:    "zoneState",
		MyID:    c.UserID,
		Players: s.hub.ZoneSnapshot(ev.ZoneID, c.UserID),
	}))
	if !rejoined {
		s.hub.ToZone(ev.ZoneID, encode(userJoined{
			Type:     "userJoined",
			UserID:   c.UserID,
			UserName: c.UserName,
			ZoneID:   ev.ZoneID,
			X:        ev.X,
			Y:        ev.Y,
		}), c.UserID)
	}
}

func (s *Server) handleMove(c *Conn, ev PlayerMove) {
	zone, ok := s.hub.SetMovement(c.UserID, ev.X, ev.Y, ev.Anim)
	if !ok || zone == "" {
		return // not in a zone: silent no-op
	}
	s.hub.ToZone(zone, encode(playerMoved{
		Type:   "playerMove",
		UserID: c.UserID,
		X:      ev.X,
		Y:      ev.Y,
		Anim:   ev.Anim,
	}), c.UserID)
}

func (s *Server) handleZoneChat(ctx context.Context, c *Conn, ev ZoneChat) {
	zone := s.hub.ZoneOf(c.UserID)
	if zone == "" {
		c.TrySend(errorFrame("join a zone first"))
		return
	}

	ts := time.Now().UnixMilli()
	if _, err := s.streams.Append(ctx, stream.ZoneRoom(zone), chatFields(c, ev.Text, ts, "")); err != nil {
		s.log.Error("ws.append", "room", stream.ZoneRoom(zone), "err", err)
		c.TrySend(errorFrame("message not sent"))
		return
	}
	s.hub.ToZone(zone, encode(chatOut{
		Type: "zoneChat", SenderID: c.UserID, SenderName: c.UserName, Text: ev.Text, Ts: ts,
	}), "")
}

func (s *Server) handleGlobalChat(ctx context.Context, c *Conn, ev GlobalChat) {
	ts := time.Now().UnixMilli()
	if _, err := s.streams.Append(ctx, stream.GlobalRoom, chatFields(c, ev.Text, ts, "")); err != nil {
		s.log.Error("ws.append", "room", stream.GlobalRoom, "err", err)
		c.TrySend(errorFrame("message not sent"))
		return
	}
	s.hub.ToAll(encode(chatOut{
		Type: "globalChat", SenderID: c.UserID, SenderName: c.UserName, Text: ev.Text, Ts: ts,
	}))
}

// handleDM persists synchronously (the sync worker only drains the
// global stream) and delivers live to both ends when online. An
// offline recipient is not an error.
func (s *Server) handleDM(ctx context.Context, c *Conn, ev DirectMessage) {
	room := stream.DMRoom(c.UserID, ev.RecipientID)
	ts := time.Now().UnixMilli()

	entryID, err := s.streams.Append(ctx, room, chatFields(c, ev.Text, ts, ev.RecipientID))
	if err != nil {
		s.log.Error("ws.append", "room", room, "err", err)
		c.TrySend(errorFrame("message not sent"))
		return
	}
	if err := s.db.InsertMessage(ctx, store.Message{
		EntryID:     entryID,
		Room:        room,
		SenderID:    c.UserID,
		SenderName:  c.UserName,
		RecipientID: ev.RecipientID,
		Text:        ev.Text,
		Ts:          time.UnixMilli(ts),
	}); err != nil {
		s.log.Error("ws.dm.persist", "room", room, "err", err)
		c.TrySend(errorFrame("message not sent"))
		return
	}

	frame := encode(chatOut{
		Type: "dm", SenderID: c.UserID, SenderName: c.UserName, Text: ev.Text, Ts: ts,
	})
	s.hub.ToUser(ev.RecipientID, frame)
	c.TrySend(frame)
}

func chatFields(c *Conn, text string, ts int64, recipientID string) map[string]string {
	f := map[string]string{
		"senderId":   c.UserID,
		"senderName": c.UserName,
		"text":       text,
		"ts":         strconv.FormatInt(ts, 10),
	}
	if recipientID != "" {
		f["recipientId"] = recipientID
	}
	return f
}
