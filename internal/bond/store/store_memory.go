package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fidelis/internal/bond/models"
	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
)

// Filter narrows a bond listing.
type Filter struct {
	// Archived filters on the archived flag when set.
	Archived *bool
	// Query matches case-insensitively against name parts, rank and unit.
	Query string
}

// InMemoryStore keeps bonds in memory. Doubles as the unit-test fake for
// the lifecycle service.
type InMemoryStore struct {
	mu     sync.RWMutex
	bonds  map[domain.BondID]models.Bond
	byIdem map[string]domain.BondID
	// FailNextWith makes the next mutating call return the given error.
	FailNextWith error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bonds:  make(map[domain.BondID]models.Bond),
		byIdem: make(map[string]domain.BondID),
	}
}

func (s *InMemoryStore) takeFailure() error {
	err := s.FailNextWith
	s.FailNextWith = nil
	return err
}

// Create inserts the bond. If idempotencyKey was already used, the
// previously inserted bond is returned instead of a duplicate row — a
// retried create must not double-insert.
func (s *InMemoryStore) Create(_ context.Context, bond *models.Bond, idempotencyKey string) (*models.Bond, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		if existingID, ok := s.byIdem[idempotencyKey]; ok {
			existing := s.bonds[existingID]
			return &existing, nil
		}
		s.byIdem[idempotencyKey] = bond.ID
	}
	s.bonds[bond.ID] = *bond
	out := *bond
	return &out, nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.BondID) (*models.Bond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bond, ok := s.bonds[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := bond
	return &out, nil
}

// Update overwrites the stored bond with the full post-image.
// Last write wins; there is no version check.
func (s *InMemoryStore) Update(_ context.Context, bond *models.Bond) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.bonds[bond.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.bonds[bond.ID] = *bond
	return nil
}

func (s *InMemoryStore) SetArchived(_ context.Context, id domain.BondID, archived bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	bond, ok := s.bonds[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	bond.IsArchived = archived
	bond.UpdatedAt = now
	s.bonds[id] = bond
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.BondID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.bonds[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bonds, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]models.Bond, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Bond
	for _, bond := range s.bonds {
		if filter.Archived != nil && bond.IsArchived != *filter.Archived {
			continue
		}
		if filter.Query != "" && !matchesQuery(&bond, filter.Query) {
			continue
		}
		out = append(out, bond)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func matchesQuery(b *models.Bond, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{b.LastName, b.FirstName, b.MiddleName, b.Rank, b.UnitOffice} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
