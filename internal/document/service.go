// Package document keeps the stored file set for each bond in sync with
// caller intent: independent upload, listing, replacement, and soft-deletion
// per document type, plus the save-time reconcile of "files to keep" against
// what exists.
package document

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	docmetrics "fidelis/internal/document/metrics"
	"fidelis/internal/document/objectstore"
	"fidelis/pkg/domain"
	dErrors "fidelis/pkg/domain-errors"
	"fidelis/pkg/platform/retry"
	pstrings "fidelis/pkg/platform/strings"
	"fidelis/pkg/requestcontext"
)

// Upload is one inbound file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ItemFailure reports one absorbed per-file failure inside a batch.
type ItemFailure struct {
	Name string `json:"name"`
	Op   string `json:"op"`
	Err  string `json:"error"`
}

// ReconcileSummary is the outcome of a reconcile pass. The pass always
// completes; failures are collected, not raised.
type ReconcileSummary struct {
	Deleted  int           `json:"deleted"`
	Uploaded int           `json:"uploaded"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

// Manager implements the document lifecycle.
type Manager struct {
	meta    MetadataStore
	objects objectstore.Store
	runner  *retry.Runner
	logger  *slog.Logger
	metrics *docmetrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithRunner sets the remote-operation runner.
func WithRunner(r *retry.Runner) Option {
	return func(m *Manager) { m.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics attaches module metrics.
func WithMetrics(mm *docmetrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mm }
}

// NewManager builds a Manager over a metadata store and an object store.
func NewManager(meta MetadataStore, objects objectstore.Store, opts ...Option) *Manager {
	m := &Manager{
		meta:    meta,
		objects: objects,
		runner:  retry.New(nil),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func validateUpload(up Upload) error {
	if strings.TrimSpace(up.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "file name is required")
	}
	if up.Content == nil {
		return dErrors.New(dErrors.CodeValidation, "file content is required")
	}
	return nil
}

// Upload stores one file for a bond. For the single-valued profile type the
// previous profile document is superseded: it is soft-deleted only after the
// new object and metadata row are confirmed stored, so there is never a
// window with zero profile documents.
func (m *Manager) Upload(ctx context.Context, bondID domain.BondID, docType domain.DocumentType, up Upload) (*Document, error) {
	if bondID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "bond id is required")
	}
	if _, err := domain.ParseDocumentType(string(docType)); err != nil {
		return nil, err
	}
	if err := validateUpload(up); err != nil {
		return nil, err
	}

	start := time.Now()
	now := requestcontext.Now(ctx)
	doc := &Document{
		ID:          domain.NewDocumentID(),
		BondID:      bondID,
		Type:        docType,
		FileName:    BuildFileName(docType, bondID, up.Name, now),
		Size:        up.Size,
		ContentType: up.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.URL = m.objects.PublicURL(doc.StoragePath())

	err := m.runner.Do(ctx, "document upload", func(ctx context.Context) error {
		return m.objects.Put(ctx, doc.StoragePath(), up.Content, up.Size, up.ContentType)
	})
	if err != nil {
		return nil, err
	}
	err = m.runner.Do(ctx, "document metadata insert", func(ctx context.Context) error {
		return m.meta.Insert(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	if docType.SingleValued() {
		m.supersedePrevious(ctx, bondID, docType, doc.ID)
	}

	if m.metrics != nil {
		m.metrics.Uploads.WithLabelValues(string(docType)).Inc()
		m.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	}
	return doc, nil
}

// supersedePrevious soft-deletes every other live document of a
// single-valued type. Failures are logged: the new upload already succeeded
// and must not be reported as failed because cleanup lagged.
func (m *Manager) supersedePrevious(ctx context.Context, bondID domain.BondID, docType domain.DocumentType, keep domain.DocumentID) {
	existing, err := m.meta.ListByType(ctx, bondID, docType)
	if err != nil {
		m.logger.ErrorContext(ctx, "list previous documents failed",
			"bond_id", bondID.String(), "type", string(docType), "error", err)
		return
	}
	for _, prev := range existing {
		if prev.ID == keep {
			continue
		}
		if err := m.Delete(ctx, prev.ID); err != nil {
			m.logger.ErrorContext(ctx, "supersede previous document failed",
				"document_id", prev.ID.String(), "error", err)
		}
	}
}

// ListByBond returns the bond's non-deleted documents, newest first.
func (m *Manager) ListByBond(ctx context.Context, bondID domain.BondID) ([]Document, error) {
	return retry.Fetch(ctx, m.runner, "document list", func(ctx context.Context) ([]Document, error) {
		return m.meta.ListByBond(ctx, bondID)
	})
}

// ListByType returns non-deleted documents of one type, updated_at descending.
func (m *Manager) ListByType(ctx context.Context, bondID domain.BondID, docType domain.DocumentType) ([]Document, error) {
	if _, err := domain.ParseDocumentType(string(docType)); err != nil {
		return nil, err
	}
	return retry.Fetch(ctx, m.runner, "document list", func(ctx context.Context) ([]Document, error) {
		return m.meta.ListByType(ctx, bondID, docType)
	})
}

// Delete soft-deletes the metadata row and best-effort removes the backing
// object. Object removal failure does not block the soft delete.
func (m *Manager) Delete(ctx context.Context, id domain.DocumentID) error {
	doc, err := retry.Fetch(ctx, m.runner, "document get", func(ctx context.Context) (*Document, error) {
		return m.meta.Get(ctx, id)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	}

	err = m.runner.Do(ctx, "document soft delete", func(ctx context.Context) error {
		return m.meta.SoftDelete(ctx, id, requestcontext.Now(ctx))
	})
	if err != nil {
		return err
	}

	if err := m.objects.Remove(ctx, doc.StoragePath()); err != nil {
		m.logger.WarnContext(ctx, "object removal failed after soft delete",
			"document_id", id.String(), "path", doc.StoragePath(), "error", err)
	}
	if m.metrics != nil {
		m.metrics.Deletes.Inc()
	}
	return nil
}

// Reconcile brings the stored set of one type in line with caller intent:
// existing documents whose cleaned display name is not in keepNames are
// deleted, then newFiles are uploaded. Every deletion and upload is attempted
// independently as a concurrent task; one file's failure is recorded in the
// summary and does not abort the others.
func (m *Manager) Reconcile(ctx context.Context, bondID domain.BondID, docType domain.DocumentType, keepNames []string, newFiles []Upload) (*ReconcileSummary, error) {
	if _, err := domain.ParseDocumentType(string(docType)); err != nil {
		return nil, err
	}

	existing, err := m.ListByType(ctx, bondID, docType)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]struct{}, len(keepNames))
	for _, name := range pstrings.DedupeAndTrim(keepNames) {
		keep[name] = struct{}{}
	}

	summary := &ReconcileSummary{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, doc := range existing {
		if _, keepIt := keep[CleanDisplayName(doc.FileName)]; keepIt {
			continue
		}
		g.Go(func() error {
			err := m.Delete(gctx, doc.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failures = append(summary.Failures, ItemFailure{
					Name: CleanDisplayName(doc.FileName), Op: "delete", Err: err.Error(),
				})
				m.recordItemFailure(gctx, "delete", doc.FileName, err)
				return nil
			}
			summary.Deleted++
			return nil
		})
	}

	for _, up := range newFiles {
		g.Go(func() error {
			_, err := m.Upload(gctx, bondID, docType, up)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failures = append(summary.Failures, ItemFailure{
					Name: up.Name, Op: "upload", Err: err.Error(),
				})
				m.recordItemFailure(gctx, "upload", up.Name, err)
				return nil
			}
			summary.Uploaded++
			return nil
		})
	}

	// Tasks never return errors (failures are absorbed into the summary),
	// so Wait only reflects context cancellation.
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (m *Manager) recordItemFailure(ctx context.Context, op, name string, err error) {
	m.logger.WarnContext(ctx, "reconcile item failed",
		"op", op, "file", name, "error", err)
	if m.metrics != nil {
		m.metrics.ReconcileFailures.Inc()
	}
}

// ReleaseAll hard-removes every document owned by a bond: metadata rows and
// backing objects. Called when the bond itself is deleted, so soft deletion
// would only strand rows. Object removal stays best-effort.
func (m *Manager) ReleaseAll(ctx context.Context, bondID domain.BondID) error {
	removed, err := retry.Fetch(ctx, m.runner, "document release", func(ctx context.Context) ([]Document, error) {
		return m.meta.HardDeleteByBond(ctx, bondID)
	})
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return nil
	}
	paths := make([]string, 0, len(removed))
	for _, doc := range removed {
		paths = append(paths, doc.StoragePath())
	}
	if err := m.objects.Remove(ctx, paths...); err != nil {
		m.logger.WarnContext(ctx, "object removal failed during release",
			"bond_id", bondID.String(), "error", err)
	}
	return nil
}
