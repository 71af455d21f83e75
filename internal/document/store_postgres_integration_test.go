//go:build integration

package document_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fidelis/internal/document"
	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
	"fidelis/pkg/testutil/containers"
)

type PostgresMetadataSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *document.PostgresMetadataStore
}

func TestPostgresMetadataSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresMetadataSuite))
}

func (s *PostgresMetadataSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	s.Require().NoError(err)
	s.Require().NoError(s.postgres.Exec(context.Background(), string(schema)))

	s.store = document.NewPostgresMetadataStore(s.postgres.DB)
}

func (s *PostgresMetadataSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "documents_metadata"))
}

func newTestDocument(bondID domain.BondID, docType domain.DocumentType, name string) *document.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &document.Document{
		ID:          domain.NewDocumentID(),
		BondID:      bondID,
		Type:        docType,
		FileName:    name,
		URL:         docType.Folder() + "/" + name,
		Size:        4,
		ContentType: "application/pdf",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PostgresMetadataSuite) TestInsertGetRoundTrip() {
	ctx := context.Background()
	doc := newTestDocument(domain.NewBondID(), domain.DocumentTypeProfile, "photo.pdf")

	s.Require().NoError(s.store.Insert(ctx, doc))

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.BondID, got.BondID)
	s.Equal(domain.DocumentTypeProfile, got.Type)
	s.Equal("photo.pdf", got.FileName)
	s.Nil(got.DeletedAt)
}

func (s *PostgresMetadataSuite) TestListFiltersSoftDeleted() {
	ctx := context.Background()
	bondID := domain.NewBondID()
	kept := newTestDocument(bondID, domain.DocumentTypeRisk, "kept.pdf")
	gone := newTestDocument(bondID, domain.DocumentTypeRisk, "gone.pdf")
	s.Require().NoError(s.store.Insert(ctx, kept))
	s.Require().NoError(s.store.Insert(ctx, gone))

	s.Require().NoError(s.store.SoftDelete(ctx, gone.ID, time.Now().UTC()))

	docs, err := s.store.ListByBond(ctx, bondID)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(kept.ID, docs[0].ID)

	// The soft-deleted row still exists and is fetchable directly.
	got, err := s.store.Get(ctx, gone.ID)
	s.Require().NoError(err)
	s.NotNil(got.DeletedAt)
}

func (s *PostgresMetadataSuite) TestSoftDeleteIsOneShot() {
	ctx := context.Background()
	doc := newTestDocument(domain.NewBondID(), domain.DocumentTypeDesignation, "order.pdf")
	s.Require().NoError(s.store.Insert(ctx, doc))

	s.Require().NoError(s.store.SoftDelete(ctx, doc.ID, time.Now().UTC()))
	s.ErrorIs(s.store.SoftDelete(ctx, doc.ID, time.Now().UTC()), sentinel.ErrNotFound)
}

func (s *PostgresMetadataSuite) TestListByTypeScopesResults() {
	ctx := context.Background()
	bondID := domain.NewBondID()
	s.Require().NoError(s.store.Insert(ctx, newTestDocument(bondID, domain.DocumentTypeProfile, "photo.pdf")))
	s.Require().NoError(s.store.Insert(ctx, newTestDocument(bondID, domain.DocumentTypeRisk, "evidence.pdf")))

	docs, err := s.store.ListByType(ctx, bondID, domain.DocumentTypeRisk)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("evidence.pdf", docs[0].FileName)
}

// TestHardDeleteReturnsEveryRow covers the release path used by bond deletion:
// soft-deleted rows come back too so their objects can be removed.
func (s *PostgresMetadataSuite) TestHardDeleteReturnsEveryRow() {
	ctx := context.Background()
	bondID := domain.NewBondID()
	live := newTestDocument(bondID, domain.DocumentTypeRisk, "live.pdf")
	buried := newTestDocument(bondID, domain.DocumentTypeRisk, "buried.pdf")
	other := newTestDocument(domain.NewBondID(), domain.DocumentTypeRisk, "other.pdf")
	s.Require().NoError(s.store.Insert(ctx, live))
	s.Require().NoError(s.store.Insert(ctx, buried))
	s.Require().NoError(s.store.Insert(ctx, other))
	s.Require().NoError(s.store.SoftDelete(ctx, buried.ID, time.Now().UTC()))

	removed, err := s.store.HardDeleteByBond(ctx, bondID)
	s.Require().NoError(err)
	s.Len(removed, 2)

	_, err = s.store.Get(ctx, live.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Another bond's documents are untouched.
	_, err = s.store.Get(ctx, other.ID)
	s.NoError(err)
}
