package objectstore

import (
	"context"
	"io"
	"sync"
)

// InMemoryStore holds objects in a map. Test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	// PutErr and RemoveErr force the next matching call to fail.
	PutErr    error
	RemoveErr error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

func (s *InMemoryStore) Put(_ context.Context, path string, r io.Reader, _ int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		err := s.PutErr
		s.PutErr = nil
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[path] = data
	return nil
}

func (s *InMemoryStore) PublicURL(path string) string {
	return "memory://" + path
}

func (s *InMemoryStore) Remove(_ context.Context, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RemoveErr != nil {
		err := s.RemoveErr
		s.RemoveErr = nil
		return err
	}
	for _, p := range paths {
		delete(s.objects, p)
	}
	return nil
}

// Has reports whether an object exists at path.
func (s *InMemoryStore) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
