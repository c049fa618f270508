package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDMRoom_CanonicalOrder(t *testing.T) {
	assert.Equal(t, "dm:alice-bob", DMRoom("alice", "bob"))
	assert.Equal(t, "dm:alice-bob", DMRoom("bob", "alice"))
	assert.Equal(t, "chat:zone:town", ZoneRoom("town"))
}

func TestMemoryLog_AppendReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	want := make([]map[string]string, 0, 5)
	for i := 0; i < 5; i++ {
		f := map[string]string{"senderId": fmt.Sprintf("u%d", i), "text": fmt.Sprintf("msg %d", i)}
		want = append(want, f)
		_, err := l.Append(ctx, GlobalRoom, f)
		require.NoError(t, err)
	}

	entries, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	prev := ""
	for i, e := range entries {
		assert.Equal(t, want[i], e.Fields)
		assert.Greater(t, e.ID, prev, "entry ids must strictly increase")
		prev = e.ID
	}
}

func TestMemoryLog_AckIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	for i := 0; i < 3; i++ {
		_, err := l.Append(ctx, GlobalRoom, map[string]string{"n": fmt.Sprint(i)})
		require.NoError(t, err)
	}

	entries, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, 0)
	require.NoError(t, err)
	ids := []string{entries[0].ID, entries[1].ID, entries[2].ID}

	require.NoError(t, l.Ack(ctx, GlobalRoom, "g1", ids...))
	require.NoError(t, l.Ack(ctx, GlobalRoom, "g1", ids...), "double ack must not error")

	// A fresh consumer in the same group must not see acked entries
	again, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c2", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestMemoryLog_UnackedRedelivered(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	for i := 0; i < 3; i++ {
		_, err := l.Append(ctx, GlobalRoom, map[string]string{"n": fmt.Sprint(i)})
		require.NoError(t, err)
	}

	first, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// No ack: the same consumer reads the same batch again
	second, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestMemoryLog_IndependentGroups(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	_, err := l.Append(ctx, GlobalRoom, map[string]string{"text": "hi"})
	require.NoError(t, err)

	a, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, a, 1)
	require.NoError(t, l.Ack(ctx, GlobalRoom, "g1", a[0].ID))

	// Another group keeps its own cursor
	b, err := l.ReadGroup(ctx, GlobalRoom, "g2", "c1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, b, 1)
}

func TestMemoryLog_BlockTimesOutEmpty(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	start := time.Now()
	entries, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMemoryLog_BlockWakesOnAppend(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = l.Append(ctx, GlobalRoom, map[string]string{"text": "ping"})
	}()

	entries, err := l.ReadGroup(ctx, GlobalRoom, "g1", "c1", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ping", entries[0].Fields["text"])
}

func TestMemoryLog_RevRangePagination(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := l.Append(ctx, "chat:zone:town", map[string]string{"n": fmt.Sprint(i)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page1, err := l.RevRange(ctx, "chat:zone:town", "", 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)

	page2, err := l.RevRange(ctx, "chat:zone:town", page1[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].ID)
	assert.Equal(t, ids[1], page2[1].ID)
}
