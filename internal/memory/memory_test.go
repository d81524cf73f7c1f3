package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	entries []Entry
}

func (f *fakeRepo) List(ctx context.Context, userID string, limit int) ([]Entry, error) {
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, entry *Entry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepo) DeleteAll(ctx context.Context, userID string) error {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

func entry(userID, input, reply string, tags []string, age time.Duration) Entry {
	return Entry{
		ID:             input,
		UserID:         userID,
		UserInput:      input,
		AssistantReply: reply,
		Tags:           tags,
		CreatedAt:      time.Now().Add(-age),
	}
}

func TestRememberAssignsID(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	got, err := svc.Remember(context.Background(), "user-1", &CreateEntryRequest{
		UserInput:      "remind me to water the plants",
		AssistantReply: "I'll remind you every Tuesday.",
		Intent:         "reminder",
	})
	require.NoError(t, err)
	assert.Len(t, got.ID, 26) // ulid
	assert.Equal(t, "user-1", got.UserID)
	assert.Len(t, repo.entries, 1)
}

func TestSearchScoresKeywords(t *testing.T) {
	repo := &fakeRepo{entries: []Entry{
		entry("user-1", "what's the weather in Lisbon", "Sunny, 24C.", nil, time.Hour),
		entry("user-1", "book flights to Lisbon", "Done, departing Friday.", []string{"travel"}, 2*time.Hour),
		entry("user-1", "play some jazz", "Playing jazz.", []string{"music"}, 3*time.Hour),
	}}
	svc := NewService(repo)

	got, err := svc.Search(context.Background(), "user-1", "lisbon travel", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Two keyword hits beat one.
	assert.Equal(t, "book flights to Lisbon", got[0].UserInput)
	assert.Equal(t, "what's the weather in Lisbon", got[1].UserInput)
}

func TestSearchTiesOrderNewestFirst(t *testing.T) {
	repo := &fakeRepo{entries: []Entry{
		entry("user-1", "older note about jazz", "ok", nil, 5*time.Hour),
		entry("user-1", "newer note about jazz", "ok", nil, time.Hour),
	}}
	svc := NewService(repo)

	got, err := svc.Search(context.Background(), "user-1", "jazz", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer note about jazz", got[0].UserInput)
}

func TestSearchEmptyQuery(t *testing.T) {
	repo := &fakeRepo{entries: []Entry{entry("user-1", "anything", "ok", nil, time.Hour)}}
	svc := NewService(repo)

	got, err := svc.Search(context.Background(), "user-1", "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchIsUserScoped(t *testing.T) {
	repo := &fakeRepo{entries: []Entry{
		entry("user-1", "jazz for me", "ok", nil, time.Hour),
		entry("user-2", "jazz for someone else", "ok", nil, time.Hour),
	}}
	svc := NewService(repo)

	got, err := svc.Search(context.Background(), "user-1", "jazz", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "jazz for me", got[0].UserInput)
}

func TestClearAll(t *testing.T) {
	repo := &fakeRepo{entries: []Entry{
		entry("user-1", "a", "ok", nil, time.Hour),
		entry("user-2", "b", "ok", nil, time.Hour),
	}}
	svc := NewService(repo)

	require.NoError(t, svc.ClearAll(context.Background(), "user-1"))
	assert.Len(t, repo.entries, 1)
	assert.Equal(t, "user-2", repo.entries[0].UserID)
}
