package stream

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaghavVerma19/ride-share-backend/internal/store"
)

type fakeSink struct {
	mu       sync.Mutex
	inserted []store.Message
	failNext bool
}

func (f *fakeSink) InsertMessages(_ context.Context, msgs []store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.inserted = append(f.inserted, msgs...)
	return nil
}

func newTestSyncer(l Log, sink Sink) *Syncer {
	s := NewSyncer(slog.Default(), l, sink, time.Second, 100, "test-worker")
	s.block = 10 * time.Millisecond // keep empty reads quick in tests
	return s
}

func appendChat(t *testing.T, l Log, sender, text string) {
	t.Helper()
	_, err := l.Append(context.Background(), GlobalRoom, map[string]string{
		"senderId":   sender,
		"senderName": "name-" + sender,
		"text":       text,
		"ts":         strconv.FormatInt(time.Now().UnixMilli(), 10),
	})
	require.NoError(t, err)
}

func TestSyncer_DrainsAndAcks(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	sink := &fakeSink{}
	s := newTestSyncer(l, sink)

	appendChat(t, l, "a", "hello")
	appendChat(t, l, "b", "world")

	require.NoError(t, s.Cycle(ctx))
	require.Len(t, sink.inserted, 2)
	assert.Equal(t, GlobalRoom, sink.inserted[0].Room)
	assert.Equal(t, "a", sink.inserted[0].SenderID)
	assert.Equal(t, "hello", sink.inserted[0].Text)

	// Everything acked: a second cycle finds nothing new
	require.NoError(t, s.Cycle(ctx))
	assert.Len(t, sink.inserted, 2)
}

func TestSyncer_FailedInsertNotAcked(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	sink := &fakeSink{failNext: true}
	s := newTestSyncer(l, sink)

	appendChat(t, l, "a", "one")
	appendChat(t, l, "a", "two")
	appendChat(t, l, "a", "three")

	require.Error(t, s.Cycle(ctx), "insert failure must surface")
	assert.Empty(t, sink.inserted)

	// Next cycle re-reads the very same entries and succeeds
	require.NoError(t, s.Cycle(ctx))
	require.Len(t, sink.inserted, 3)
	assert.Equal(t, "one", sink.inserted[0].Text)
	assert.Equal(t, "three", sink.inserted[2].Text)
}

func TestSyncer_RunStopsOnCancel(t *testing.T) {
	l := NewMemoryLog()
	s := NewSyncer(slog.Default(), l, &fakeSink{}, 5*time.Millisecond, 100, "w")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("syncer did not stop after cancel")
	}
}

func TestMessageFromEntry(t *testing.T) {
	e := Entry{ID: "7-0", Fields: map[string]string{
		"senderId":   "u1",
		"senderName": "Alice",
		"text":       "hi",
		"ts":         "1700000000000",
	}}

	m := MessageFromEntry(GlobalRoom, e)
	assert.Equal(t, "7-0", m.EntryID)
	assert.Equal(t, GlobalRoom, m.Room)
	assert.Equal(t, "u1", m.SenderID)
	assert.Equal(t, "Alice", m.SenderName)
	assert.Equal(t, "hi", m.Text)
	assert.Equal(t, time.UnixMilli(1700000000000), m.Ts)
	assert.Empty(t, m.RecipientID)
}
