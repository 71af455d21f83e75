package reference

import (
	"context"
	"sync"

	dErrors "fidelis/pkg/domain-errors"
)

// InMemoryStore serves seeded lookup rows from memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[Kind][]Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[Kind][]Item)}
}

// Seed replaces the rows of one kind.
func (s *InMemoryStore) Seed(kind Kind, names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Item, 0, len(names))
	for i, name := range names {
		items = append(items, Item{ID: i + 1, Name: name})
	}
	s.items[kind] = items
}

func (s *InMemoryStore) List(_ context.Context, kind Kind) ([]Item, error) {
	if !validKind(kind) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown reference table %q", kind)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items[kind]))
	copy(out, s.items[kind])
	return out, nil
}

func validKind(kind Kind) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
