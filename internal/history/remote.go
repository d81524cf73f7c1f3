package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aria-assistant/aria/internal/supaclient"
)

// Remote is the cloud copy of the conversation log.
type Remote interface {
	// Fetch returns the stored log in append order, or empty when absent.
	Fetch(ctx context.Context, userID string) ([]Message, error)
	// ReplaceAll overwrites the cloud log with msgs.
	ReplaceAll(ctx context.Context, userID string, msgs []Message) error
	// Clear deletes the cloud log.
	Clear(ctx context.Context, userID string) error
}

type historyRow struct {
	UserID              string `json:"user_id"`
	Role                string `json:"role"`
	Content             string `json:"content"`
	Timestamp           int64  `json:"timestamp"`
	IsIntegrationResult bool   `json:"is_integration_result"`
	Position            int    `json:"position"`
}

type supabaseRemote struct {
	client *supaclient.Client
}

// NewSupabaseRemote returns a Remote over the chat_messages table.
func NewSupabaseRemote(client *supaclient.Client) Remote {
	return &supabaseRemote{client: client}
}

func (r *supabaseRemote) Fetch(ctx context.Context, userID string) ([]Message, error) {
	var rows []historyRow
	_, err := r.client.DB().From("chat_messages").
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("fetching chat history for %s: %w", userID, err)
	}

	return logFromRows(userID, rows), nil
}

// logFromRows rebuilds the log from each row's explicit position rather
// than trusting query order. Duplicate or out-of-range positions shrink the
// result; that is a corrupted cloud log and gets a warning instead of
// vanishing silently.
func logFromRows(userID string, rows []historyRow) []Message {
	msgs := make([]Message, len(rows))
	for _, row := range rows {
		m := Message{
			Role:                row.Role,
			Content:             row.Content,
			Timestamp:           row.Timestamp,
			IsIntegrationResult: row.IsIntegrationResult,
		}
		if row.Position >= 0 && row.Position < len(msgs) {
			msgs[row.Position] = m
		}
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m.Role != "" {
			out = append(out, m)
		}
	}
	if len(out) != len(rows) {
		slog.Warn("cloud chat log has duplicate or out-of-range positions",
			"user_id", userID, "rows", len(rows), "messages", len(out))
	}
	return out
}

func (r *supabaseRemote) ReplaceAll(ctx context.Context, userID string, msgs []Message) error {
	if err := r.Clear(ctx, userID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]historyRow, len(msgs))
	for i, m := range msgs {
		rows[i] = historyRow{
			UserID:              userID,
			Role:                m.Role,
			Content:             m.Content,
			Timestamp:           m.Timestamp,
			IsIntegrationResult: m.IsIntegrationResult,
			Position:            i,
		}
	}

	_, _, err := r.client.DB().From("chat_messages").
		Insert(rows, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("pushing chat history for %s: %w", userID, err)
	}
	return nil
}

func (r *supabaseRemote) Clear(ctx context.Context, userID string) error {
	_, _, err := r.client.DB().From("chat_messages").
		Delete("", "").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("clearing chat history for %s: %w", userID, err)
	}
	return nil
}
