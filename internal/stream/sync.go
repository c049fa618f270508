package stream

import (
	"context"
	"strconv"
	"time"

	"log/slog"

	"github.com/RaghavVerma19/ride-share-backend/internal/store"
	"github.com/RaghavVerma19/ride-share-backend/pkg/metrics"
)

// SyncGroup is the consumer group that drains chat streams into the
// database.
const SyncGroup = "db-sync"

const defaultReadBlock = 5 * time.Second

// Sink receives drained batches. *store.Postgres satisfies it.
type Sink interface {
	InsertMessages(ctx context.Context, msgs []store.Message) error
}

// Syncer periodically drains unacknowledged global chat entries into
// the sink. Delivery is at least once: a failed insert is never acked,
// so the next cycle re-reads the same batch, and the sink dedups on
// entry id.
type Syncer struct {
	log      *slog.Logger
	stream   Log
	sink     Sink
	interval time.Duration
	batch    int
	consumer string
	block    time.Duration
}

func NewSyncer(logger *slog.Logger, stream Log, sink Sink, interval time.Duration, batch int, consumer string) *Syncer {
	return &Syncer{
		log:      logger,
		stream:   stream,
		sink:     sink,
		interval: interval,
		batch:    batch,
		consumer: consumer,
		block:    defaultReadBlock,
	}
}

// Run drives cycles until ctx is cancelled. Cycles run on the loop
// goroutine itself, so one cannot start while the previous is still in
// flight; a tick that lands mid-cycle is simply dropped.
func (s *Syncer) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sync.stopped")
			return
		case <-t.C:
			if err := s.Cycle(ctx); err != nil {
				metrics.SyncFailures.Inc()
				s.log.Error("sync.cycle", "err", err)
			}
		}
	}
}

// Cycle drains one batch: read unacked entries, insert, then ack
// exactly what was inserted.
func (s *Syncer) Cycle(ctx context.Context) error {
	entries, err := s.stream.ReadGroup(ctx, GlobalRoom, SyncGroup, s.consumer, s.batch, s.block)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	msgs := make([]store.Message, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, MessageFromEntry(GlobalRoom, e))
		ids = append(ids, e.ID)
	}

	if err := s.sink.InsertMessages(ctx, msgs); err != nil {
		return err // no ack: redelivered next cycle
	}
	if err := s.stream.Ack(ctx, GlobalRoom, SyncGroup, ids...); err != nil {
		return err
	}

	metrics.SyncBatches.Inc()
	s.log.Debug("sync.batch", "count", len(msgs))
	return nil
}

// MessageFromEntry maps raw stream fields onto a durable record. The
// ts field is epoch milliseconds.
func MessageFromEntry(room string, e Entry) store.Message {
	ms, _ := strconv.ParseInt(e.Fields["ts"], 10, 64)
	ts := time.UnixMilli(ms)
	if ms == 0 {
		ts = time.Now()
	}
	return store.Message{
		EntryID:     e.ID,
		Room:        room,
		SenderID:    e.Fields["senderId"],
		SenderName:  e.Fields["senderName"],
		RecipientID: e.Fields["recipientId"],
		Text:        e.Fields["text"],
		Ts:          ts,
	}
}
