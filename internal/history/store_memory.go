package history

import (
	"context"
	"sync"

	"fidelis/pkg/domain"
)

// InMemoryStore keeps history entries in memory. Doubles as the unit-test
// fake for everything that records history.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	// FailWith, when set, makes Append return it. Lets tests prove that
	// history failures never surface to the mutating caller.
	FailWith error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByBond(_ context.Context, bondID domain.BondID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	// Appended oldest-first; return newest first.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].BondID == bondID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}
