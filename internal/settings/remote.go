package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aria-assistant/aria/internal/supaclient"
)

// Remote is the cloud copy of per-category settings blobs.
type Remote interface {
	// FetchCategory returns the stored blob, or nil when absent.
	FetchCategory(ctx context.Context, userID, category string) (map[string]any, error)
	// UpsertCategory writes the blob for (user, category).
	UpsertCategory(ctx context.Context, userID, category string, data map[string]any) error
}

type settingsRow struct {
	UserID    string          `json:"user_id"`
	Category  string          `json:"category"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type supabaseRemote struct {
	client *supaclient.Client
}

// NewSupabaseRemote returns a Remote over the user_settings table.
func NewSupabaseRemote(client *supaclient.Client) Remote {
	return &supabaseRemote{client: client}
}

func (r *supabaseRemote) FetchCategory(ctx context.Context, userID, category string) (map[string]any, error) {
	var rows []settingsRow
	_, err := r.client.DB().From("user_settings").
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("category", category).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("fetching settings %s/%s: %w", userID, category, err)
	}
	if len(rows) == 0 || len(rows[0].Data) == 0 {
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal(rows[0].Data, &data); err != nil {
		return nil, fmt.Errorf("decoding settings %s/%s: %w", userID, category, err)
	}
	return data, nil
}

func (r *supabaseRemote) UpsertCategory(ctx context.Context, userID, category string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding settings %s/%s: %w", userID, category, err)
	}

	row := settingsRow{
		UserID:    userID,
		Category:  category,
		Data:      raw,
		UpdatedAt: time.Now().UTC(),
	}
	_, _, err = r.client.DB().From("user_settings").
		Insert(row, true, "user_id,category", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upserting settings %s/%s: %w", userID, category, err)
	}
	return nil
}
