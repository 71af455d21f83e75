package document

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fidelis/internal/document/objectstore"
	"fidelis/pkg/domain"
	dErrors "fidelis/pkg/domain-errors"
	"fidelis/pkg/platform/retry"
	"fidelis/pkg/requestcontext"
)

type ManagerSuite struct {
	suite.Suite
	meta    *InMemoryMetadataStore
	objects *objectstore.InMemoryStore
	manager *Manager
	bondID  domain.BondID
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.meta = NewInMemoryMetadataStore()
	s.objects = objectstore.NewInMemoryStore()
	runner := retry.New(nil, retry.WithMaxAttempts(1))
	s.manager = NewManager(s.meta, s.objects,
		WithRunner(runner),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	s.bondID = domain.NewBondID()
}

func upload(name string) Upload {
	return Upload{
		Name:        name,
		ContentType: "application/pdf",
		Size:        4,
		Content:     strings.NewReader("data"),
	}
}

// ctxAt pins the request clock so generated names are deterministic per call.
func ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ManagerSuite) TestUpload_StoresObjectAndMetadata() {
	doc, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeRisk, upload("proof.pdf"))
	s.Require().NoError(err)

	s.True(strings.HasPrefix(doc.FileName, "risk_"+s.bondID.String()))
	s.True(s.objects.Has("risks/" + doc.FileName))
	s.Contains(doc.URL, "risks/")

	docs, err := s.manager.ListByType(context.Background(), s.bondID, domain.DocumentTypeRisk)
	s.Require().NoError(err)
	s.Len(docs, 1)
}

func (s *ManagerSuite) TestUpload_Validation() {
	_, err := s.manager.Upload(context.Background(), s.bondID, domain.DocumentType("selfie"), upload("a.png"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.manager.Upload(context.Background(), s.bondID, domain.DocumentTypeProfile, Upload{Name: ""})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.manager.Upload(context.Background(), domain.BondID{}, domain.DocumentTypeProfile, upload("a.png"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ManagerSuite) TestUpload_ProfileSupersedesPrevious() {
	first, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeProfile, upload("old.png"))
	s.Require().NoError(err)

	second, err := s.manager.Upload(ctxAt(time.Unix(1710000100, 0)), s.bondID, domain.DocumentTypeProfile, upload("new.png"))
	s.Require().NoError(err)

	// Exactly one live profile document remains and it is the new one.
	docs, err := s.manager.ListByType(context.Background(), s.bondID, domain.DocumentTypeProfile)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(second.ID, docs[0].ID)

	// The old object is gone, the new one is present.
	s.False(s.objects.Has(first.StoragePath()))
	s.True(s.objects.Has(second.StoragePath()))
}

func (s *ManagerSuite) TestUpload_FailedUploadKeepsPreviousProfile() {
	first, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeProfile, upload("old.png"))
	s.Require().NoError(err)

	s.objects.PutErr = errors.New("storage down")
	_, err = s.manager.Upload(ctxAt(time.Unix(1710000100, 0)), s.bondID, domain.DocumentTypeProfile, upload("new.png"))
	s.Require().Error(err)

	// Never delete the old before the new upload succeeds.
	docs, err := s.manager.ListByType(context.Background(), s.bondID, domain.DocumentTypeProfile)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(first.ID, docs[0].ID)
	s.True(s.objects.Has(first.StoragePath()))
}

func (s *ManagerSuite) TestDelete_SoftDeletesAndRemovesObject() {
	doc, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeDesignation, upload("memo.pdf"))
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Delete(context.Background(), doc.ID))

	docs, err := s.manager.ListByBond(context.Background(), s.bondID)
	s.Require().NoError(err)
	s.Empty(docs)
	s.False(s.objects.Has(doc.StoragePath()))
}

func (s *ManagerSuite) TestDelete_ObjectRemovalFailureDoesNotBlockSoftDelete() {
	doc, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeDesignation, upload("memo.pdf"))
	s.Require().NoError(err)

	s.objects.RemoveErr = errors.New("storage down")
	s.Require().NoError(s.manager.Delete(context.Background(), doc.ID))

	docs, err := s.manager.ListByBond(context.Background(), s.bondID)
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *ManagerSuite) TestReconcile_DeletesOnlyUnkeptFiles() {
	_, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeRisk, upload("photo.pdf"))
	s.Require().NoError(err)
	old, err := s.manager.Upload(ctxAt(time.Unix(1710000100, 0)), s.bondID, domain.DocumentTypeRisk, upload("old.pdf"))
	s.Require().NoError(err)

	summary, err := s.manager.Reconcile(context.Background(), s.bondID, domain.DocumentTypeRisk, []string{"photo.pdf"}, nil)
	s.Require().NoError(err)
	s.Equal(1, summary.Deleted)
	s.Empty(summary.Failures)

	docs, err := s.manager.ListByType(context.Background(), s.bondID, domain.DocumentTypeRisk)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("photo.pdf", CleanDisplayName(docs[0].FileName))
	s.False(s.objects.Has(old.StoragePath()))
}

func (s *ManagerSuite) TestReconcile_UploadsNewFiles() {
	summary, err := s.manager.Reconcile(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeDesignation,
		nil, []Upload{upload("a.pdf"), upload("b.pdf")})
	s.Require().NoError(err)
	s.Equal(2, summary.Uploaded)

	docs, err := s.manager.ListByType(context.Background(), s.bondID, domain.DocumentTypeDesignation)
	s.Require().NoError(err)
	s.Len(docs, 2)
}

func (s *ManagerSuite) TestReconcile_OneFailureDoesNotAbortSiblings() {
	s.objects.PutErr = errors.New("storage down")

	summary, err := s.manager.Reconcile(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeRisk,
		nil, []Upload{upload("a.pdf"), upload("b.pdf")})
	s.Require().NoError(err)

	// Exactly one of the two failed; the other still went through.
	s.Equal(1, summary.Uploaded)
	s.Require().Len(summary.Failures, 1)
	s.Equal("upload", summary.Failures[0].Op)
}

func (s *ManagerSuite) TestReleaseAll_HardRemovesEverything() {
	doc1, err := s.manager.Upload(ctxAt(time.Unix(1710000000, 0)), s.bondID, domain.DocumentTypeRisk, upload("a.pdf"))
	s.Require().NoError(err)
	doc2, err := s.manager.Upload(ctxAt(time.Unix(1710000100, 0)), s.bondID, domain.DocumentTypeProfile, upload("b.png"))
	s.Require().NoError(err)

	s.Require().NoError(s.manager.ReleaseAll(context.Background(), s.bondID))

	_, err = s.meta.Get(context.Background(), doc1.ID)
	s.Error(err)
	_, err = s.meta.Get(context.Background(), doc2.ID)
	s.Error(err)
	s.Equal(0, s.objects.Len())
}
