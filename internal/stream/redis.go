package stream

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/RaghavVerma19/ride-share-backend/internal/app"
)

// RedisLog implements Log on top of Redis streams
// (XADD / XREADGROUP / XACK / XREVRANGE).
type RedisLog struct {
	rdb *redis.Client
	log *slog.Logger

	mu     sync.Mutex
	groups map[string]struct{} // room|group pairs already created
}

// NewRedisLog connects to redis and verifies connectivity
func NewRedisLog(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisLog, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisLog{rdb: rdb, log: log, groups: map[string]struct{}{}}, nil
}

// Close shuts down the redis connection
func (l *RedisLog) Close() { _ = l.rdb.Close() }

func (l *RedisLog) Append(ctx context.Context, room string, fields map[string]string) (string, error) {
	vals := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		vals[k] = v
	}
	return l.rdb.XAdd(ctx, &redis.XAddArgs{Stream: room, Values: vals}).Result()
}

// ensureGroup creates the consumer group at the start of the stream,
// tolerating the group already existing.
func (l *RedisLog) ensureGroup(ctx context.Context, room, group string) error {
	key := room + "|" + group
	l.mu.Lock()
	_, done := l.groups[key]
	l.mu.Unlock()
	if done {
		return nil
	}
	err := l.rdb.XGroupCreateMkStream(ctx, room, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	l.mu.Lock()
	l.groups[key] = struct{}{}
	l.mu.Unlock()
	return nil
}

func (l *RedisLog) ReadGroup(ctx context.Context, room, group, consumer string, count int, block time.Duration) ([]Entry, error) {
	if err := l.ensureGroup(ctx, room, group); err != nil {
		return nil, err
	}

	// Pending entries first: a worker that crashed mid-cycle re-reads
	// what it never acked before taking anything new.
	entries, err := l.read(ctx, room, group, consumer, "0", count, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}
	return l.read(ctx, room, group, consumer, ">", count, block)
}

func (l *RedisLog) read(ctx context.Context, room, group, consumer, id string, count int, block time.Duration) ([]Entry, error) {
	if block == 0 {
		block = -1 // go-redis: no blocking
	}
	res, err := l.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{room, id},
		Count:    int64(count),
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil // block timeout
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, s := range res {
		for _, m := range s.Messages {
			out = append(out, Entry{ID: m.ID, Fields: stringFields(m.Values)})
		}
	}
	return out, nil
}

func (l *RedisLog) Ack(ctx context.Context, room, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return l.rdb.XAck(ctx, room, group, ids...).Err()
}

func (l *RedisLog) RevRange(ctx context.Context, room, cursor string, count int) ([]Entry, error) {
	start := "+"
	if cursor != "" {
		start = "(" + cursor // exclusive, resume past the last page
	}
	msgs, err := l.rdb.XRevRangeN(ctx, room, start, "-", int64(count)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Entry{ID: m.ID, Fields: stringFields(m.Values)})
	}
	return out, nil
}

func stringFields(vals map[string]interface{}) map[string]string {
	f := make(map[string]string, len(vals))
	for k, v := range vals {
		if s, ok := v.(string); ok {
			f[k] = s
		}
	}
	return f
}
