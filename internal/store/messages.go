package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// InsertMessage persists a single chat message. Duplicate entry ids are
// ignored so retried sends are safe.
func (p *Postgres) InsertMessage(ctx context.Context, m Message) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO messages (entry_id, room, sender_id, sender_name, recipient_id, text, ts)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (entry_id) DO NOTHING
	`, m.EntryID, m.Room, m.SenderID, m.SenderName, m.RecipientID, m.Text, m.Ts)
	return err
}

// InsertMessages persists a batch drained from the stream log in one
// round trip. The entry_id unique index makes re-delivered batches
// no-ops, which is what the at-least-once sync path needs.
func (p *Postgres) InsertMessages(ctx context.Context, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, m := range msgs {
		b.Queue(`
			INSERT INTO messages (entry_id, room, sender_id, sender_name, recipient_id, text, ts)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
			ON CONFLICT (entry_id) DO NOTHING
		`, m.EntryID, m.Room, m.SenderID, m.SenderName, m.RecipientID, m.Text, m.Ts)
	}
	br := p.pool.SendBatch(ctx, b)
	defer br.Close()
	for range msgs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	p.log.Debug("messages.batch", "count", len(msgs))
	return nil
}

// UserNames resolves display names for a set of user ids (history backfill)
func (p *Postgres) UserNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	rows, err := p.pool.Query(ctx, `SELECT id, full_name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
