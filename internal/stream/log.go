package stream

import (
	"context"
	"time"
)

// Room keys. DM rooms sort the pair so both parties resolve to the
// same stream.
const GlobalRoom = "chat:global"

func ZoneRoom(zoneID string) string { return "chat:zone:" + zoneID }

func DMRoom(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + "-" + b
}

// Entry is one appended record: an id that increases monotonically
// within its room plus opaque string fields.
type Entry struct {
	ID     string
	Fields map[string]string
}

// Log is an append-only, consumer-group-aware stream per room. It is
// the durable staging buffer between live fan-out and the database.
type Log interface {
	// Append persists fields under a new id and returns it. A failed
	// append means the message was not sent.
	Append(ctx context.Context, room string, fields map[string]string) (string, error)

	// ReadGroup returns up to count entries not yet acknowledged by
	// this group, blocking up to block if none are available. Pending
	// (delivered but unacked) entries for this consumer are returned
	// first so a crashed worker picks up where it left off. An empty
	// result on timeout is not an error.
	ReadGroup(ctx context.Context, room, group, consumer string, count int, block time.Duration) ([]Entry, error)

	// Ack marks entries processed for the group. Idempotent.
	Ack(ctx context.Context, room, group string, ids ...string) error

	// RevRange pages entries newest-first. An empty cursor starts from
	// the latest entry; otherwise reading resumes strictly before it.
	RevRange(ctx context.Context, room, cursor string, count int) ([]Entry, error)
}
