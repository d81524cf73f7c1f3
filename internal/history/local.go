package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LocalLog holds each user's conversation log in a Redis list. It is the
// copy shown immediately on load; the cloud copy reconciles over it.
type LocalLog struct {
	client redis.Cmdable
}

func NewLocalLog(client redis.Cmdable) *LocalLog {
	return &LocalLog{client: client}
}

func logKey(userID string) string {
	return "chat:" + userID
}

// Read returns the full log in append order, skipping malformed entries.
func (l *LocalLog) Read(ctx context.Context, userID string) ([]Message, error) {
	key := logKey(userID)

	vals, err := l.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	msgs := make([]Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue // skip malformed entries
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Append adds a message and trims the log to maxMsgs in one pipeline.
func (l *LocalLog) Append(ctx context.Context, userID string, m Message, maxMsgs int) error {
	key := logKey(userID)

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	pipe := l.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	if maxMsgs > 0 {
		pipe.LTrim(ctx, key, int64(-maxMsgs), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// Replace overwrites the whole log, used when the cloud copy wins on load.
func (l *LocalLog) Replace(ctx context.Context, userID string, msgs []Message) error {
	key := logKey(userID)

	pipe := l.client.Pipeline()
	pipe.Del(ctx, key)
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshaling message: %w", err)
		}
		pipe.RPush(ctx, key, string(data))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// Clear deletes the user's log.
func (l *LocalLog) Clear(ctx context.Context, userID string) error {
	return l.client.Del(ctx, logKey(userID)).Err()
}
