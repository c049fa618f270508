package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"log/slog"

	"nhooyr.io/websocket"
)

// fakeSocket satisfies wire without a network
type fakeSocket struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeSocket) Read(context.Context) (websocket.MessageType, []byte, error) {
	return 0, nil, errors.New("fake socket has no reader")
}

func (f *fakeSocket) Write(context.Context, websocket.MessageType, []byte) error { return nil }

func (f *fakeSocket) Ping(context.Context) error { return nil }

func (f *fakeSocket) Close(websocket.StatusCode, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestConn(userID, userName string) *Conn {
	return NewConn(userID, userName, &fakeSocket{})
}

// drain empties a conn's outbound queue into decoded frames
func drain(t *testing.T, c *Conn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case b := <-c.out:
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("undecodable outbound frame: %v", err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func frameTypes(frames []map[string]any) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		typ, _ := f["type"].(string)
		out = append(out, typ)
	}
	return out
}

func testLogger() *slog.Logger { return slog.Default() }
