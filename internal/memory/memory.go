// Package memory stores conversational memories: distilled exchanges the
// assistant can recall later with keyword search.
package memory

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/supabase-community/postgrest-go"

	"github.com/aria-assistant/aria/internal/supaclient"
)

// Entry is one remembered exchange.
type Entry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserInput      string    `json:"user_input"`
	AssistantReply string    `json:"assistant_reply"`
	Intent         string    `json:"intent,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateEntryRequest struct {
	UserInput      string   `json:"user_input" validate:"required,min=1"`
	AssistantReply string   `json:"assistant_reply" validate:"required,min=1"`
	Intent         string   `json:"intent"`
	Tags           []string `json:"tags"`
}

// Repository persists memory entries.
type Repository interface {
	List(ctx context.Context, userID string, limit int) ([]Entry, error)
	Create(ctx context.Context, entry *Entry) error
	DeleteAll(ctx context.Context, userID string) error
}

const memoriesTable = "memories"

type supabaseRepository struct {
	client *supaclient.Client
}

func NewSupabaseRepository(client *supaclient.Client) Repository {
	return &supabaseRepository{client: client}
}

func (r *supabaseRepository) List(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if !r.client.Enabled() {
		return nil, supaclient.ErrDisabled
	}

	q := r.client.DB().From(memoriesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		q = q.Limit(limit, "")
	}

	var entries []Entry
	if _, err := q.ExecuteTo(&entries); err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	return entries, nil
}

func (r *supabaseRepository) Create(ctx context.Context, entry *Entry) error {
	if !r.client.Enabled() {
		return supaclient.ErrDisabled
	}

	_, _, err := r.client.DB().From(memoriesTable).
		Insert(entry, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("creating memory: %w", err)
	}
	return nil
}

func (r *supabaseRepository) DeleteAll(ctx context.Context, userID string) error {
	if !r.client.Enabled() {
		return supaclient.ErrDisabled
	}

	_, _, err := r.client.DB().From(memoriesTable).
		Delete("", "").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("clearing memories: %w", err)
	}
	return nil
}

// Service creates, lists, searches and clears memories. Search is naive
// keyword scoring over the stored text; recall quality comes from the
// assistant writing good summaries, not from the ranking.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const defaultListLimit = 200

func (s *Service) Remember(ctx context.Context, userID string, req *CreateEntryRequest) (*Entry, error) {
	entry := &Entry{
		ID:             ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		UserID:         userID,
		UserInput:      req.UserInput,
		AssistantReply: req.AssistantReply,
		Intent:         req.Intent,
		Tags:           req.Tags,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, userID, limit)
}

// Search ranks the user's memories against the query keywords. An entry
// scores one point per keyword found in its input, reply, intent or tags.
// Zero-score entries are dropped; ties order newest first.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]Entry, error) {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	entries, err := s.repo.List(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, err
	}

	type scored struct {
		entry Entry
		score int
	}
	matches := make([]scored, 0, len(entries))
	for _, entry := range entries {
		haystack := strings.ToLower(strings.Join(append([]string{
			entry.UserInput, entry.AssistantReply, entry.Intent,
		}, entry.Tags...), " "))

		score := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{entry: entry, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].entry.CreatedAt.After(matches[j].entry.CreatedAt)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Entry, len(matches))
	for i, m := range matches {
		out[i] = m.entry
	}
	return out, nil
}

// ClearAll deletes every memory the user has.
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	return s.repo.DeleteAll(ctx, userID)
}
