package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

type fakePrefs struct {
	Rate  float64 `json:"rate"`
	Voice string  `json:"voice"`
}

func TestStore_PutAndGet(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	in := fakePrefs{Rate: 1.2, Voice: "Samantha"}
	require.NoError(t, s.Put(ctx, "user-1", KeySpeechSettings, in))

	var out fakePrefs
	require.NoError(t, s.Get(ctx, "user-1", KeySpeechSettings, &out))
	assert.Equal(t, in, out)
}

func TestStore_GetMissingReturnsNotFound(t *testing.T) {
	s, _ := setupStore(t)

	var out fakePrefs
	err := s.Get(context.Background(), "user-1", "nope", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CorruptValueClearedAndTreatedAsAbsent(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	mr.Set("prefs:user-1:speech_settings", "{not json")

	var out fakePrefs
	err := s.Get(ctx, "user-1", KeySpeechSettings, &out)
	assert.ErrorIs(t, err, ErrNotFound)

	// Corrupt key is gone
	assert.False(t, mr.Exists("prefs:user-1:speech_settings"))
}

func TestStore_IsolatedByUser(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "user-1", KeySavedVoice, "Karen"))
	require.NoError(t, s.Put(ctx, "user-2", KeySavedVoice, "Daniel"))

	var voice string
	require.NoError(t, s.Get(ctx, "user-1", KeySavedVoice, &voice))
	assert.Equal(t, "Karen", voice)

	require.NoError(t, s.Get(ctx, "user-2", KeySavedVoice, &voice))
	assert.Equal(t, "Daniel", voice)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "user-1", KeySavedVoice, "Karen"))
	require.NoError(t, s.Delete(ctx, "user-1", KeySavedVoice))
	require.NoError(t, s.Delete(ctx, "user-1", KeySavedVoice))

	var voice string
	assert.ErrorIs(t, s.Get(ctx, "user-1", KeySavedVoice, &voice), ErrNotFound)
}
