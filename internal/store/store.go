// Package store is the local preference store: a per-user JSON key-value
// namespace backed by Redis. It is the authoritative copy for immediate
// reads; cloud sync reconciles it opportunistically.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key has no value for the user.
var ErrNotFound = errors.New("preference not found")

// Well-known preference keys.
const (
	KeySpeechSettings  = "speech_settings"
	KeyModelSettings   = "model_settings"
	KeyCommandSettings = "command_settings"
	KeyGeneralSettings = "general_settings"
	KeySavedVoice      = "saved_voice"
)

type Store struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

func prefKey(userID, key string) string {
	return fmt.Sprintf("prefs:%s:%s", userID, key)
}

// Get reads a preference into out. Malformed JSON is treated as absence:
// the corrupt key is deleted and ErrNotFound returned.
func (s *Store) Get(ctx context.Context, userID, key string, out any) error {
	k := prefKey(userID, key)

	raw, err := s.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("reading %s: %w", k, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.Warn("preference store: clearing corrupt key", "key", k, "error", err)
		if delErr := s.client.Del(ctx, k).Err(); delErr != nil {
			slog.Warn("preference store: deleting corrupt key", "key", k, "error", delErr)
		}
		return ErrNotFound
	}
	return nil
}

// Put writes a preference as JSON. Values must be JSON-serializable; live
// handles never go through here.
func (s *Store) Put(ctx context.Context, userID, key string, val any) error {
	k := prefKey(userID, key)

	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", k, err)
	}
	if err := s.client.Set(ctx, k, string(data), 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", k, err)
	}
	return nil
}

// Delete removes a preference. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, userID, key string) error {
	k := prefKey(userID, key)
	if err := s.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", k, err)
	}
	return nil
}
