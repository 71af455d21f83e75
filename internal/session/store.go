package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
)

// Store records which sessions are live. The auth provider writes entries at
// login; this service only reads and refreshes them.
type Store interface {
	// Get returns the actor label for a live session, or sentinel.ErrExpired
	// if the session is absent or lapsed.
	Get(ctx context.Context, id domain.SessionID) (string, error)
	// Put registers a session. Used by the dev bootstrap and tests.
	Put(ctx context.Context, id domain.SessionID, actor string, ttl time.Duration) error
}

const keyPrefix = "session:"

// RedisStore keeps sessions in redis under session:{id} with a TTL.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, id domain.SessionID) (string, error) {
	actor, err := s.client.Get(ctx, keyPrefix+id.String()).Result()
	if err == redis.Nil {
		return "", sentinel.ErrExpired
	}
	if err != nil {
		return "", err
	}
	return actor, nil
}

func (s *RedisStore) Put(ctx context.Context, id domain.SessionID, actor string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+id.String(), actor, ttl).Err()
}

type memoryEntry struct {
	actor     string
	expiresAt time.Time
}

// InMemoryStore is the redis-less fallback for development and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]memoryEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[domain.SessionID]memoryEntry)}
}

func (s *InMemoryStore) Get(_ context.Context, id domain.SessionID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", sentinel.ErrExpired
	}
	return entry.actor, nil
}

func (s *InMemoryStore) Put(_ context.Context, id domain.SessionID, actor string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memoryEntry{actor: actor, expiresAt: time.Now().Add(ttl)}
	return nil
}
