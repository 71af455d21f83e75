package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
)

// InMemoryMetadataStore keeps document metadata in memory. Test fake and
// redis-less development backend.
type InMemoryMetadataStore struct {
	mu   sync.RWMutex
	docs map[domain.DocumentID]Document
}

func NewInMemoryMetadataStore() *InMemoryMetadataStore {
	return &InMemoryMetadataStore{docs: make(map[domain.DocumentID]Document)}
}

func (s *InMemoryMetadataStore) Insert(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = *doc
	return nil
}

func (s *InMemoryMetadataStore) Get(_ context.Context, id domain.DocumentID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := doc
	return &out, nil
}

func (s *InMemoryMetadataStore) ListByBond(_ context.Context, bondID domain.BondID) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for _, doc := range s.docs {
		if doc.BondID == bondID && doc.DeletedAt == nil {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryMetadataStore) ListByType(_ context.Context, bondID domain.BondID, docType domain.DocumentType) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for _, doc := range s.docs {
		if doc.BondID == bondID && doc.Type == docType && doc.DeletedAt == nil {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryMetadataStore) SoftDelete(_ context.Context, id domain.DocumentID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	doc.DeletedAt = &at
	s.docs[id] = doc
	return nil
}

func (s *InMemoryMetadataStore) HardDeleteByBond(_ context.Context, bondID domain.BondID) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []Document
	for id, doc := range s.docs {
		if doc.BondID == bondID {
			removed = append(removed, doc)
			delete(s.docs, id)
		}
	}
	return removed, nil
}
