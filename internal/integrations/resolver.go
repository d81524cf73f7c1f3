package integrations

import (
	"context"
	"strings"
)

// Resolver maps a loosely specified integration name to a concrete
// integration. Resolution tries, in order: exact name match, exact category
// match, then substring containment in either direction against both name
// and category. Matching is case-insensitive and only active integrations
// participate.
type Resolver struct {
	cache *Cache
}

func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache}
}

// Resolve finds the integration the given name refers to. When nothing
// matches it returns a NotFoundError carrying every known integration name
// so the caller can correct itself.
func (r *Resolver) Resolve(ctx context.Context, userID, name string) (*Integration, error) {
	integrations, err := r.cache.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := integrations[:0:0]
	for _, integ := range integrations {
		if integ.Active {
			active = append(active, integ)
		}
	}

	want := strings.ToLower(strings.TrimSpace(name))

	for i := range active {
		if strings.ToLower(active[i].Name) == want {
			return &active[i], nil
		}
	}
	for i := range active {
		if active[i].Category != "" && strings.ToLower(active[i].Category) == want {
			return &active[i], nil
		}
	}
	for i := range active {
		if matchesLoosely(want, active[i].Name) || matchesLoosely(want, active[i].Category) {
			return &active[i], nil
		}
	}

	known := make([]string, 0, len(active))
	for _, integ := range active {
		known = append(known, integ.Name)
	}
	return nil, &NotFoundError{Name: name, Known: known}
}

// matchesLoosely reports whether either string contains the other, so
// "calendar-app" resolves to "Calendar" and vice versa.
func matchesLoosely(want, candidate string) bool {
	if want == "" || candidate == "" {
		return false
	}
	have := strings.ToLower(candidate)
	return strings.Contains(have, want) || strings.Contains(want, have)
}
