package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-assistant/aria/internal/store"
)

type fakeRemote struct {
	blobs   map[string]map[string]any // category -> data
	failAll bool
	upserts int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: map[string]map[string]any{}}
}

func (f *fakeRemote) FetchCategory(ctx context.Context, userID, category string) (map[string]any, error) {
	if f.failAll {
		return nil, errors.New("remote down")
	}
	return f.blobs[category], nil
}

func (f *fakeRemote) UpsertCategory(ctx context.Context, userID, category string, data map[string]any) error {
	if f.failAll {
		return errors.New("remote down")
	}
	f.upserts++
	f.blobs[category] = data
	return nil
}

func setupService(t *testing.T) (*Service, *fakeRemote) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	remote := newFakeRemote()
	return NewService(store.New(client), remote), remote
}

func TestMerge_ShallowLastWriteWins(t *testing.T) {
	base := map[string]any{"rate": 1.0, "voice": "Samantha"}
	over := map[string]any{"rate": 1.5}

	out := Merge(base, over)
	assert.Equal(t, 1.5, out["rate"])
	assert.Equal(t, "Samantha", out["voice"])
	// Inputs untouched
	assert.Equal(t, 1.0, base["rate"])
}

func TestMerge_OneLevelNested(t *testing.T) {
	base := map[string]any{
		"aliases": map[string]any{"gm": "gmail", "cal": "calendar"},
		"enabled": true,
	}
	over := map[string]any{
		"aliases": map[string]any{"cal": "calendar-v2", "dr": "drive"},
	}

	out := Merge(base, over)
	aliases := out["aliases"].(map[string]any)
	assert.Equal(t, "gmail", aliases["gm"])
	assert.Equal(t, "calendar-v2", aliases["cal"])
	assert.Equal(t, "drive", aliases["dr"])
	assert.Equal(t, true, out["enabled"])
}

func TestMerge_NestedReplacesScalar(t *testing.T) {
	base := map[string]any{"aliases": "none"}
	over := map[string]any{"aliases": map[string]any{"gm": "gmail"}}

	out := Merge(base, over)
	assert.Equal(t, map[string]any{"gm": "gmail"}, out["aliases"])
}

func TestService_SaveThenLoadRoundTrip(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.UpdateCategory(ctx, "user-1", CategorySpeech, map[string]any{
		"rate":  1.25,
		"voice": "Karen",
	})
	require.NoError(t, err)

	loaded, err := svc.Load(ctx, "user-1", CategorySpeech)
	require.NoError(t, err)

	want := Merge(Defaults(CategorySpeech), map[string]any{
		"rate":  1.25,
		"voice": "Karen",
	})
	assert.Equal(t, want, loaded)
}

func TestService_LoadUnsavedReturnsDefaults(t *testing.T) {
	svc, _ := setupService(t)

	loaded, err := svc.Load(context.Background(), "user-1", CategoryModel)
	require.NoError(t, err)
	assert.Equal(t, Defaults(CategoryModel), loaded)
}

func TestService_UnknownCategory(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Load(context.Background(), "user-1", "bogus")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = svc.UpdateCategory(context.Background(), "user-1", "bogus", map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestService_UpdateReportsCloudPushResult(t *testing.T) {
	svc, remote := setupService(t)
	ctx := context.Background()

	ok, err := svc.UpdateCategory(ctx, "user-1", CategoryGeneral, map[string]any{"theme": "dark"})
	require.NoError(t, err)
	assert.True(t, ok)

	remote.failAll = true
	ok, err = svc.UpdateCategory(ctx, "user-1", CategoryGeneral, map[string]any{"theme": "light"})
	require.NoError(t, err, "cloud failure must not fail the local save")
	assert.False(t, ok)

	// Local save still happened
	loaded, err := svc.Load(ctx, "user-1", CategoryGeneral)
	require.NoError(t, err)
	assert.Equal(t, "light", loaded["theme"])
}

func TestService_AnonymousUserSkipsCloud(t *testing.T) {
	svc, remote := setupService(t)

	ok, err := svc.UpdateCategory(context.Background(), "", CategorySpeech, map[string]any{"rate": 2.0})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, remote.upserts)
}

func TestService_ReconcileRemoteWins(t *testing.T) {
	svc, remote := setupService(t)
	ctx := context.Background()

	_, err := svc.UpdateCategory(ctx, "user-1", CategoryGeneral, map[string]any{"theme": "dark"})
	require.NoError(t, err)
	remote.blobs[CategoryGeneral] = map[string]any{"theme": "solarized", "language": "de"}

	require.NoError(t, svc.Reconcile(ctx, "user-1"))

	loaded, err := svc.Load(ctx, "user-1", CategoryGeneral)
	require.NoError(t, err)
	assert.Equal(t, "solarized", loaded["theme"])
	assert.Equal(t, "de", loaded["language"])
}

func TestService_ReconcileUploadsWhenRemoteEmpty(t *testing.T) {
	svc, remote := setupService(t)
	ctx := context.Background()

	remote.failAll = true // local save only
	_, err := svc.UpdateCategory(ctx, "user-1", CategoryModel, map[string]any{"model": "gpt-4o"})
	require.NoError(t, err)
	remote.failAll = false

	require.NoError(t, svc.Reconcile(ctx, "user-1"))

	assert.Equal(t, "gpt-4o", remote.blobs[CategoryModel]["model"])
}

func TestService_SyncAllReportsFailures(t *testing.T) {
	svc, remote := setupService(t)
	ctx := context.Background()

	_, err := svc.UpdateCategory(ctx, "user-1", CategoryModel, map[string]any{"model": "gpt-4o"})
	require.NoError(t, err)
	_, err = svc.UpdateCategory(ctx, "user-1", CategorySpeech, map[string]any{"rate": 1.5})
	require.NoError(t, err)

	remote.failAll = true
	failed, err := svc.SyncAll(ctx, "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{CategoryModel, CategorySpeech}, failed)
}
