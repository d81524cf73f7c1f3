package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aria-assistant/aria/internal/store"
)

// ErrUnknownCategory is returned for category names outside Categories.
var ErrUnknownCategory = errors.New("unknown settings category")

// Service keeps category-scoped settings consistent between the local
// preference store and the cloud copy. Local is authoritative for reads;
// updates push to the cloud synchronously so the caller can react to a
// failed push (unlike chat history, which syncs in the background).
type Service struct {
	local  *store.Store
	remote Remote
}

func NewService(local *store.Store, remote Remote) *Service {
	return &Service{local: local, remote: remote}
}

func localKey(category string) string {
	return category + "_settings"
}

// Load returns defaults merged under the saved blob for a category.
func (s *Service) Load(ctx context.Context, userID, category string) (map[string]any, error) {
	if !Known(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	saved := map[string]any{}
	err := s.local.Get(ctx, userID, localKey(category), &saved)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading %s settings: %w", category, err)
	}
	return Merge(Defaults(category), saved), nil
}

// UpdateCategory merges data into the saved blob, persists it locally, and
// pushes it to the cloud. The returned bool reports whether the cloud push
// succeeded; a false with nil error means local-only success.
func (s *Service) UpdateCategory(ctx context.Context, userID, category string, data map[string]any) (bool, error) {
	if !Known(category) {
		return false, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	saved := map[string]any{}
	err := s.local.Get(ctx, userID, localKey(category), &saved)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("loading %s settings: %w", category, err)
	}

	merged := Merge(saved, data)
	if err := s.local.Put(ctx, userID, localKey(category), merged); err != nil {
		return false, fmt.Errorf("saving %s settings: %w", category, err)
	}

	if s.remote == nil || userID == "" {
		return false, nil
	}
	if err := s.remote.UpsertCategory(ctx, userID, category, merged); err != nil {
		slog.Warn("settings: cloud push failed", "category", category, "user_id", userID, "error", err)
		return false, nil
	}
	return true, nil
}

// SyncAll pushes every locally saved category to the cloud in one pass.
// Used for manual "force sync". Returns the categories that failed.
func (s *Service) SyncAll(ctx context.Context, userID string) ([]string, error) {
	if s.remote == nil {
		return nil, fmt.Errorf("cloud sync not configured")
	}

	var failed []string
	for _, category := range Categories {
		saved := map[string]any{}
		err := s.local.Get(ctx, userID, localKey(category), &saved)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return failed, fmt.Errorf("loading %s settings: %w", category, err)
		}
		if err := s.remote.UpsertCategory(ctx, userID, category, saved); err != nil {
			slog.Warn("settings: sync all push failed", "category", category, "error", err)
			failed = append(failed, category)
		}
	}
	return failed, nil
}

// Reconcile pulls the cloud copy on session start: a non-empty cloud blob
// replaces the local one; a missing cloud blob gets the local copy pushed up.
func (s *Service) Reconcile(ctx context.Context, userID string) error {
	if s.remote == nil || userID == "" {
		return nil
	}

	for _, category := range Categories {
		remote, err := s.remote.FetchCategory(ctx, userID, category)
		if err != nil {
			slog.Warn("settings: fetch failed, keeping local", "category", category, "error", err)
			continue
		}

		if len(remote) > 0 {
			if err := s.local.Put(ctx, userID, localKey(category), remote); err != nil {
				return fmt.Errorf("overwriting local %s settings: %w", category, err)
			}
			continue
		}

		saved := map[string]any{}
		err = s.local.Get(ctx, userID, localKey(category), &saved)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading %s settings: %w", category, err)
		}
		if err := s.remote.UpsertCategory(ctx, userID, category, saved); err != nil {
			slog.Warn("settings: first-sync upload failed", "category", category, "error", err)
		}
	}
	return nil
}
