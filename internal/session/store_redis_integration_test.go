//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fidelis/internal/session"
	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
	"fidelis/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	id := domain.SessionID(uuid.New())

	s.Require().NoError(s.store.Put(ctx, id, "clerk", time.Minute))

	actor, err := s.store.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal("clerk", actor)
}

func (s *RedisStoreSuite) TestAbsentSessionIsExpired() {
	_, err := s.store.Get(context.Background(), domain.SessionID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrExpired)
}

func (s *RedisStoreSuite) TestTTLLapsesSession() {
	ctx := context.Background()
	id := domain.SessionID(uuid.New())

	s.Require().NoError(s.store.Put(ctx, id, "clerk", 100*time.Millisecond))

	_, err := s.store.Get(ctx, id)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		_, err := s.store.Get(ctx, id)
		return err != nil
	}, 2*time.Second, 50*time.Millisecond, "session should lapse after its TTL")
}
