//go:build integration

package store_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fidelis/internal/bond/models"
	"fidelis/internal/bond/store"
	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
	"fidelis/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	s.Require().NoError(err)
	s.Require().NoError(s.postgres.Exec(context.Background(), string(schema)))

	s.store = store.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "bonds"))
}

func newTestBond(lastName string) *models.Bond {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return models.New(domain.NewBondID(), models.Input{
		LastName:           lastName,
		FirstName:          "Juan",
		Rank:               "PCpl",
		UnitOffice:         "RFU-5",
		EffectiveDate:      "01/15/25",
		DateOfCancellation: "01/15/26",
	}, now)
}

func (s *PostgresStoreSuite) TestCreateGetRoundTrip() {
	ctx := context.Background()
	bond := newTestBond("Cruz")

	created, err := s.store.Create(ctx, bond, "")
	s.Require().NoError(err)
	s.Equal(bond.ID, created.ID)

	got, err := s.store.Get(ctx, bond.ID)
	s.Require().NoError(err)
	s.Equal(bond.LastName, got.LastName)
	s.Equal(bond.EffectiveDate, got.EffectiveDate)
	s.False(got.IsArchived)
}

// TestConcurrentIdempotentCreate verifies that replayed create requests with
// the same idempotency key land on exactly one row.
func (s *PostgresStoreSuite) TestConcurrentIdempotentCreate() {
	ctx := context.Background()
	key := "replay-" + domain.NewBondID().String()
	const goroutines = 50

	first := newTestBond("Cruz")
	var wg sync.WaitGroup
	var failures atomic.Int32
	ids := make([]domain.BondID, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			attempt := newTestBond("Cruz")
			if idx == 0 {
				attempt = first
			}
			created, err := s.store.Create(ctx, attempt, key)
			if err != nil {
				failures.Add(1)
				return
			}
			ids[idx] = created.ID
		}(i)
	}

	wg.Wait()

	s.Equal(int32(0), failures.Load(), "every replay should resolve to the winning row")
	winner := ids[0]
	for _, id := range ids {
		s.Equal(winner, id)
	}

	bonds, err := s.store.List(ctx, store.Filter{})
	s.Require().NoError(err)
	s.Len(bonds, 1)
}

func (s *PostgresStoreSuite) TestUpdateOverwritesRow() {
	ctx := context.Background()
	bond := newTestBond("Cruz")
	_, err := s.store.Create(ctx, bond, "")
	s.Require().NoError(err)

	bond.Rank = "PSSg"
	bond.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Update(ctx, bond))

	got, err := s.store.Get(ctx, bond.ID)
	s.Require().NoError(err)
	s.Equal("PSSg", got.Rank)
}

func (s *PostgresStoreSuite) TestSetArchivedAndFilter() {
	ctx := context.Background()
	active := newTestBond("Cruz")
	shelved := newTestBond("Santos")
	_, err := s.store.Create(ctx, active, "")
	s.Require().NoError(err)
	_, err = s.store.Create(ctx, shelved, "")
	s.Require().NoError(err)

	s.Require().NoError(s.store.SetArchived(ctx, shelved.ID, true, time.Now().UTC()))

	archived := true
	bonds, err := s.store.List(ctx, store.Filter{Archived: &archived})
	s.Require().NoError(err)
	s.Require().Len(bonds, 1)
	s.Equal(shelved.ID, bonds[0].ID)
}

func (s *PostgresStoreSuite) TestListQueryMatchesNameParts() {
	ctx := context.Background()
	_, err := s.store.Create(ctx, newTestBond("Cruz"), "")
	s.Require().NoError(err)
	_, err = s.store.Create(ctx, newTestBond("Santos"), "")
	s.Require().NoError(err)

	bonds, err := s.store.List(ctx, store.Filter{Query: "cRuZ"})
	s.Require().NoError(err)
	s.Require().Len(bonds, 1)
	s.Equal("Cruz", bonds[0].LastName)
}

func (s *PostgresStoreSuite) TestDeleteRemovesRow() {
	ctx := context.Background()
	bond := newTestBond("Cruz")
	_, err := s.store.Create(ctx, bond, "")
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(ctx, bond.ID))

	_, err = s.store.Get(ctx, bond.ID)
	s.True(errors.Is(err, sentinel.ErrNotFound))
	s.ErrorIs(s.store.Delete(ctx, bond.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestNotFoundSentinels() {
	ctx := context.Background()
	ghost := newTestBond("Ghost")

	_, err := s.store.Get(ctx, ghost.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
	s.ErrorIs(s.store.SetArchived(ctx, ghost.ID, true, time.Now().UTC()), sentinel.ErrNotFound)
}
