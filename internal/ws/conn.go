package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// wire is the slice of *websocket.Conn the hub needs; tests swap in a
// fake.
type wire interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
}

// Conn couples a user identity to a live socket plus ephemeral
// presence. Presence fields are guarded by the hub lock; the socket is
// owned exclusively by this Conn.
type Conn struct {
	UserID   string
	UserName string

	ws  wire
	out chan []byte

	closeOnce sync.Once
	closedCh  chan struct{}

	// presence, hub.mu held
	zoneID string
	x, y   float64
	anim   string
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps an accepted socket for a verified user
func NewConn(userID, userName string, ws wire) *Conn {
	return &Conn{
		UserID:   userID,
		UserName: userName,
		ws:       ws,
		out:      make(chan []byte, 256),
		closedCh: make(chan struct{}),
	}
}

// Read blocks until it receives a text/binary message.
// Returns false if the connection is closed.
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound messages + periodic pings.
// Exits when ctx is cancelled or the conn closes.
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-c.closedCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// TrySend queues a frame without blocking. Frames for a closed or
// backed-up peer are dropped; the close handler does the real cleanup.
func (c *Conn) TrySend(b []byte) {
	select {
	case <-c.closedCh:
		return
	default:
	}
	select {
	case c.out <- b:
	default: // slow consumer, drop
	}
}

// Close shuts the socket down; safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closedCh)
		_ = c.ws.Close(websocket.StatusNormalClosure, "bye")
	})
}

// closeReplaced is used when a reconnect displaces this conn.
func (c *Conn) closeReplaced() {
	c.closeOnce.Do(func() {
		close(c.closedCh)
		_ = c.ws.Close(websocket.StatusPolicyViolation, "replaced by newer connection")
	})
}
