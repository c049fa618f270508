package stream

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLog is an in-process Log with the same group semantics as the
// redis one. It backs tests and redis-less dev runs.
type MemoryLog struct {
	mu    sync.Mutex
	rooms map[string]*memRoom
}

type memRoom struct {
	seq     int64
	entries []Entry
	groups  map[string]*memGroup
	notify  chan struct{} // closed+replaced on every append
}

type memGroup struct {
	next    int               // index of the next never-delivered entry
	pending map[string]string // entry id -> consumer that holds it
	order   []string          // pending ids in delivery order
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{rooms: map[string]*memRoom{}}
}

func (l *MemoryLog) room(key string) *memRoom {
	r := l.rooms[key]
	if r == nil {
		r = &memRoom{groups: map[string]*memGroup{}, notify: make(chan struct{})}
		l.rooms[key] = r
	}
	return r
}

func (r *memRoom) group(name string) *memGroup {
	g := r.groups[name]
	if g == nil {
		g = &memGroup{pending: map[string]string{}}
		r.groups[name] = g
	}
	return g
}

func (l *MemoryLog) Append(_ context.Context, room string, fields map[string]string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.room(room)
	r.seq++
	id := fmt.Sprintf("%d-0", r.seq)

	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	r.entries = append(r.entries, Entry{ID: id, Fields: cp})

	close(r.notify)
	r.notify = make(chan struct{})
	return id, nil
}

func (l *MemoryLog) ReadGroup(ctx context.Context, room, group, consumer string, count int, block time.Duration) ([]Entry, error) {
	deadline := time.Now().Add(block)
	for {
		l.mu.Lock()
		r := l.room(room)
		g := r.group(group)

		// Unacked entries previously handed to this consumer come back
		// first.
		if out := r.takePending(g, consumer, count); len(out) > 0 {
			l.mu.Unlock()
			return out, nil
		}

		var out []Entry
		for g.next < len(r.entries) && len(out) < count {
			e := r.entries[g.next]
			g.next++
			g.pending[e.ID] = consumer
			g.order = append(g.order, e.ID)
			out = append(out, e)
		}
		notify := r.notify
		l.mu.Unlock()

		if len(out) > 0 {
			return out, nil
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, nil // timeout, empty batch
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
			return nil, nil
		case <-notify:
			t.Stop()
		}
	}
}

func (r *memRoom) takePending(g *memGroup, consumer string, count int) []Entry {
	var out []Entry
	for _, id := range g.order {
		if len(out) >= count {
			break
		}
		if g.pending[id] != consumer {
			continue
		}
		for _, e := range r.entries {
			if e.ID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (l *MemoryLog) Ack(_ context.Context, room, group string, ids ...string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := l.room(room).group(group)
	for _, id := range ids {
		if _, ok := g.pending[id]; !ok {
			continue // already acked
		}
		delete(g.pending, id)
		for i, o := range g.order {
			if o == id {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (l *MemoryLog) RevRange(_ context.Context, room, cursor string, count int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.room(room)
	start := len(r.entries) - 1
	if cursor != "" {
		start = -1
		for i, e := range r.entries {
			if e.ID == cursor {
				start = i - 1
				break
			}
		}
	}

	var out []Entry
	for i := start; i >= 0 && len(out) < count; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
