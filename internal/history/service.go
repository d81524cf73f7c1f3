package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aria-assistant/aria/internal/synctask"
)

// Service keeps the conversation log consistent between the local Redis
// copy and the cloud store. Local is always read first and shown; the cloud
// copy wins outright when present (no merge). Pushes after an append go
// through the background sync queue.
type Service struct {
	local       *LocalLog
	remote      Remote
	queue       *synctask.Queue
	maxMessages int
}

func NewService(local *LocalLog, remote Remote, queue *synctask.Queue, maxMessages int) *Service {
	if maxMessages <= 0 {
		maxMessages = 100
	}
	return &Service{
		local:       local,
		remote:      remote,
		queue:       queue,
		maxMessages: maxMessages,
	}
}

// Load returns the log to display. Local entries are deduplicated by
// (timestamp, content, role). With an identified user, a non-empty cloud
// log replaces the local copy entirely and is rewritten to local storage;
// an empty cloud log gets the local copy uploaded once.
func (s *Service) Load(ctx context.Context, userID string) ([]Message, error) {
	local, err := s.local.Read(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading local log: %w", err)
	}
	local = Dedupe(local)

	if userID == "" || s.remote == nil {
		return local, nil
	}

	remote, err := s.remote.Fetch(ctx, userID)
	if err != nil {
		// Cloud unreachable: the local copy stands, nothing is lost.
		slog.Warn("chat history: cloud fetch failed, showing local", "user_id", userID, "error", err)
		return local, nil
	}

	if len(remote) > 0 {
		remote = Truncate(remote, s.maxMessages)
		if err := s.local.Replace(ctx, userID, remote); err != nil {
			slog.Warn("chat history: rewriting local copy", "user_id", userID, "error", err)
		}
		return remote, nil
	}

	if len(local) > 0 {
		s.enqueuePush(userID, local)
	}
	return local, nil
}

// Append writes the message locally at once, truncating FIFO to the cap,
// then schedules a full-log cloud push for identified users.
func (s *Service) Append(ctx context.Context, userID string, m Message) error {
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}

	if err := s.local.Append(ctx, userID, m, s.maxMessages); err != nil {
		return fmt.Errorf("appending to local log: %w", err)
	}

	if userID == "" || s.remote == nil {
		return nil
	}

	full, err := s.local.Read(ctx, userID)
	if err != nil {
		slog.Warn("chat history: reading log for push", "user_id", userID, "error", err)
		return nil
	}
	s.enqueuePush(userID, full)
	return nil
}

// Clear empties the local log immediately and schedules a cloud clear.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.local.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clearing local log: %w", err)
	}

	if userID == "" || s.remote == nil {
		return nil
	}
	_, err := s.queue.Enqueue(synctask.Task{
		Component: "chat_history",
		Operation: "clear",
		UserID:    userID,
		Run: func(ctx context.Context) error {
			return s.remote.Clear(ctx, userID)
		},
	})
	if err != nil {
		slog.Warn("chat history: enqueueing cloud clear", "user_id", userID, "error", err)
	}
	return nil
}

func (s *Service) enqueuePush(userID string, msgs []Message) {
	_, err := s.queue.Enqueue(synctask.Task{
		Component: "chat_history",
		Operation: "push",
		UserID:    userID,
		Run: func(ctx context.Context) error {
			return s.remote.ReplaceAll(ctx, userID, msgs)
		},
	})
	if err != nil {
		slog.Warn("chat history: enqueueing cloud push", "user_id", userID, "error", err)
	}
}
