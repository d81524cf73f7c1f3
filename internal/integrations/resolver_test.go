package integrations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu     sync.Mutex
	integs []Integration
	lists  int
	fail   bool
}

func (f *fakeRepo) List(ctx context.Context, userID string) ([]Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.fail {
		return nil, errors.New("cloud unreachable")
	}
	out := make([]Integration, 0, len(f.integs))
	for _, integ := range f.integs {
		if integ.UserID == userID {
			out = append(out, integ)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.integs {
		if f.integs[i].UserID == userID && f.integs[i].ID == id {
			integ := f.integs[i]
			return &integ, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Create(ctx context.Context, integ *Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.integs = append(f.integs, *integ)
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, integ *Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.integs {
		if f.integs[i].ID == integ.ID {
			f.integs[i] = *integ
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.integs {
		if f.integs[i].UserID == userID && f.integs[i].ID == id {
			f.integs = append(f.integs[:i], f.integs[i+1:]...)
			return nil
		}
	}
	return nil
}

func testIntegration(name, category string) Integration {
	return Integration{
		ID:       uuid.New(),
		UserID:   "user-1",
		Name:     name,
		URL:      "https://example.com/hook",
		Type:     TypeAPI,
		Category: category,
		Active:   true,
		Commands: []Command{
			{Name: "list_events"},
			{Name: "create_event"},
		},
	}
}

func TestResolveExactName(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{
		testIntegration("Calendar", "productivity"),
		testIntegration("Email", "communication"),
	}}
	resolver := NewResolver(NewCache(repo, time.Minute))

	integ, err := resolver.Resolve(context.Background(), "user-1", "email")
	require.NoError(t, err)
	assert.Equal(t, "Email", integ.Name)
}

func TestResolveExactCategoryBeatsSubstring(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{
		testIntegration("Weather Tools", "weather"),
		testIntegration("Forecast", "weathering-data"),
	}}
	resolver := NewResolver(NewCache(repo, time.Minute))

	integ, err := resolver.Resolve(context.Background(), "user-1", "weather")
	require.NoError(t, err)
	assert.Equal(t, "Weather Tools", integ.Name)
}

func TestResolveSubstring(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{
		testIntegration("Calendar", "productivity"),
	}}
	resolver := NewResolver(NewCache(repo, time.Minute))

	// The model often invents compound names like "calendar-app"; containment
	// in either direction still lands on the right integration.
	integ, err := resolver.Resolve(context.Background(), "user-1", "calendar-app")
	require.NoError(t, err)
	assert.Equal(t, "Calendar", integ.Name)
}

func TestResolveNotFoundListsAlternatives(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{
		testIntegration("Calendar", "productivity"),
		testIntegration("Email", "communication"),
	}}
	resolver := NewResolver(NewCache(repo, time.Minute))

	_, err := resolver.Resolve(context.Background(), "user-1", "spreadsheet")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ElementsMatch(t, []string{"Calendar", "Email"}, notFound.Known)
}

func TestResolveSkipsInactive(t *testing.T) {
	inactive := testIntegration("Calendar", "productivity")
	inactive.Active = false
	repo := &fakeRepo{integs: []Integration{inactive}}
	resolver := NewResolver(NewCache(repo, time.Minute))

	_, err := resolver.Resolve(context.Background(), "user-1", "Calendar")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, notFound.Known)
}

func TestCacheServesRepeatedLookups(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{testIntegration("Calendar", "productivity")}}
	cache := NewCache(repo, time.Minute)

	for i := 0; i < 5; i++ {
		_, err := cache.List(context.Background(), "user-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.lists)
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{testIntegration("Calendar", "productivity")}}
	cache := NewCache(repo, time.Minute)

	_, err := cache.List(context.Background(), "user-1")
	require.NoError(t, err)
	cache.Invalidate("user-1")
	_, err = cache.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
}

func TestCacheServesStaleOnFetchFailure(t *testing.T) {
	repo := &fakeRepo{integs: []Integration{testIntegration("Calendar", "productivity")}}
	cache := NewCache(repo, time.Nanosecond)

	_, err := cache.List(context.Background(), "user-1")
	require.NoError(t, err)

	repo.mu.Lock()
	repo.fail = true
	repo.mu.Unlock()
	time.Sleep(time.Millisecond)

	integs, err := cache.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, integs, 1)
}
