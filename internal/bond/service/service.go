// Package service orchestrates the bond lifecycle: every mutation runs in
// the fixed order mutation → history → documents, statuses are derived on
// each read, and all store traffic goes through the retry runner.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fidelis/internal/bond/metrics"
	"fidelis/internal/bond/models"
	"fidelis/internal/bond/status"
	"fidelis/internal/bond/store"
	"fidelis/internal/history"
	"fidelis/pkg/domain"
	dErrors "fidelis/pkg/domain-errors"
	"fidelis/pkg/platform/retry"
	"fidelis/pkg/platform/sentinel"
	"fidelis/pkg/platform/tx"
	"fidelis/pkg/requestcontext"
)

// renewedDateLayout is the shape renewal stamps onto the date strings. It
// matches the normalized form the bulk importer writes, so renewed and
// imported records look alike in storage.
const renewedDateLayout = "01/02/06"

type BondStore interface {
	Create(ctx context.Context, bond *models.Bond, idempotencyKey string) (*models.Bond, error)
	Get(ctx context.Context, id domain.BondID) (*models.Bond, error)
	Update(ctx context.Context, bond *models.Bond) error
	SetArchived(ctx context.Context, id domain.BondID, archived bool, now time.Time) error
	Delete(ctx context.Context, id domain.BondID) error
	List(ctx context.Context, filter store.Filter) ([]models.Bond, error)
}

// HistoryRecorder captures lifecycle events. Record never fails: the
// recorder logs and swallows write errors internally.
type HistoryRecorder interface {
	Record(ctx context.Context, bond *models.Bond, changeType history.ChangeType, oldBond *models.Bond)
	List(ctx context.Context, bondID domain.BondID) ([]history.Entry, error)
}

// DocumentReleaser hard-removes every document a bond owns.
type DocumentReleaser interface {
	ReleaseAll(ctx context.Context, bondID domain.BondID) error
}

// View is a bond plus its derived, never-persisted status.
type View struct {
	models.Bond
	Status        status.Status `json:"status"`
	DaysRemaining int           `json:"days_remaining"`
}

// ListFilter narrows List output. Status filters on the derived value,
// so it is applied after derivation, not pushed to the store.
type ListFilter struct {
	Archived *bool
	Query    string
	Status   status.Status
}

// Service coordinates bond mutations with their history and document
// side effects.
type Service struct {
	bonds     BondStore
	recorder  HistoryRecorder
	documents DocumentReleaser
	runner    *retry.Runner
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithRunner(r *retry.Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithTxRunner sets the transaction boundary for multi-store mutations.
// The SQL wiring passes a tx.SQLRunner so the stores' context-carried
// transaction is honored; the default NopRunner suits the memory stores.
func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(bonds BondStore, recorder HistoryRecorder, documents DocumentReleaser, opts ...Option) *Service {
	s := &Service{
		bonds:     bonds,
		recorder:  recorder,
		documents: documents,
		runner:    retry.New(nil),
		tx:        tx.NopRunner{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new bond and records its CREATE event. idempotencyKey
// dedupes retried creates; when the caller did not supply one, a key is
// generated here, before the first attempt, so every retry shares it.
func (s *Service) Create(ctx context.Context, in models.Input, idempotencyKey string) (*View, error) {
	if err := in.Validate(); err != nil {
		s.countError("create")
		return nil, err
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	now := requestcontext.Now(ctx)
	bond := models.New(domain.NewBondID(), in, now)

	created, err := retry.Fetch(ctx, s.runner, "bond create", func(ctx context.Context) (*models.Bond, error) {
		return s.bonds.Create(ctx, bond, idempotencyKey)
	})
	if err != nil {
		s.countError("create")
		return nil, s.translate(err, "bond")
	}

	// A dedupe hit means a previous attempt already recorded CREATE.
	if created.ID == bond.ID {
		s.recorder.Record(ctx, created, history.ChangeCreate, nil)
	}

	s.countOp("create")
	return s.detailView(ctx, created), nil
}

// Get returns one bond with its derived status. Missing or unparseable
// dates report N/A here rather than a guessed status.
func (s *Service) Get(ctx context.Context, id domain.BondID) (*View, error) {
	bond, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detailView(ctx, bond), nil
}

// List returns bonds with statuses derived per row. Listing treats missing
// dates as EXPIRED so every row lands in a filterable bucket.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]View, error) {
	start := time.Now()
	bonds, err := retry.Fetch(ctx, s.runner, "bond list", func(ctx context.Context) ([]models.Bond, error) {
		return s.bonds.List(ctx, store.Filter{Archived: filter.Archived, Query: filter.Query})
	})
	if err != nil {
		return nil, s.translate(err, "bond")
	}

	now := requestcontext.Now(ctx)
	views := make([]View, 0, len(bonds))
	for i := range bonds {
		result := status.Derive(bonds[i].EffectiveDate, bonds[i].DateOfCancellation, now, status.MissingDatesExpired)
		if s.metrics != nil {
			s.metrics.StatusDerived.WithLabelValues(string(result.Status)).Inc()
		}
		if filter.Status != "" && result.Status != filter.Status {
			continue
		}
		views = append(views, View{Bond: bonds[i], Status: result.Status, DaysRemaining: result.DaysRemaining})
	}

	if s.metrics != nil {
		s.metrics.ListDuration.Observe(time.Since(start).Seconds())
	}
	return views, nil
}

// Update overwrites the bond's descriptive fields and records an UPDATE
// event carrying the field diff against the pre-image.
func (s *Service) Update(ctx context.Context, id domain.BondID, in models.Input) (*View, error) {
	if err := in.Validate(); err != nil {
		s.countError("update")
		return nil, err
	}

	pre, err := s.fetch(ctx, id)
	if err != nil {
		s.countError("update")
		return nil, err
	}

	updated := *pre
	updated.Apply(in, requestcontext.Now(ctx))

	err = s.runner.Do(ctx, "bond update", func(ctx context.Context) error {
		return s.bonds.Update(ctx, &updated)
	})
	if err != nil {
		s.countError("update")
		return nil, s.translate(err, "bond")
	}

	s.recorder.Record(ctx, &updated, history.ChangeUpdate, pre)
	s.countOp("update")
	return s.detailView(ctx, &updated), nil
}

// Archive marks the bond archived. Archive and restore are flag flips
// only: the history change types stay CREATE/UPDATE/DELETE/RENEW.
func (s *Service) Archive(ctx context.Context, id domain.BondID) error {
	return s.setArchived(ctx, id, true, "archive")
}

// Restore clears the archived flag.
func (s *Service) Restore(ctx context.Context, id domain.BondID) error {
	return s.setArchived(ctx, id, false, "restore")
}

func (s *Service) setArchived(ctx context.Context, id domain.BondID, archived bool, op string) error {
	err := s.runner.Do(ctx, "bond "+op, func(ctx context.Context) error {
		return s.bonds.SetArchived(ctx, id, archived, requestcontext.Now(ctx))
	})
	if err != nil {
		s.countError(op)
		return s.translate(err, "bond")
	}
	s.countOp(op)
	return nil
}

// Renew restarts the bond's term: effective date becomes today and the
// cancellation date lands one year out, which makes the derived status
// VALID again. The RENEW event carries the pre-renewal dates in its diff.
func (s *Service) Renew(ctx context.Context, id domain.BondID) (*View, error) {
	pre, err := s.fetch(ctx, id)
	if err != nil {
		s.countError("renew")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	renewed := *pre
	renewed.EffectiveDate = now.UTC().Format(renewedDateLayout)
	renewed.DateOfCancellation = now.UTC().AddDate(1, 0, 0).Format(renewedDateLayout)
	renewed.UpdatedAt = now

	err = s.runner.Do(ctx, "bond renew", func(ctx context.Context) error {
		return s.bonds.Update(ctx, &renewed)
	})
	if err != nil {
		s.countError("renew")
		return nil, s.translate(err, "bond")
	}

	s.recorder.Record(ctx, &renewed, history.ChangeRenew, pre)
	s.countOp("renew")
	return s.detailView(ctx, &renewed), nil
}

// Delete removes the bond for good: DELETE history from the pre-image
// first, then hard-release of owned documents and the row itself in one
// transaction. The history entry outlives the bond. Each retry attempt
// opens a fresh transaction; a rollback leaves both the row and the
// document metadata so a retried delete can release the stragglers.
func (s *Service) Delete(ctx context.Context, id domain.BondID) error {
	pre, err := s.fetch(ctx, id)
	if err != nil {
		s.countError("delete")
		return err
	}

	s.recorder.Record(ctx, pre, history.ChangeDelete, nil)

	err = s.runner.Do(ctx, "bond delete", func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.documents.ReleaseAll(ctx, id); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "release bond documents")
			}
			return s.bonds.Delete(ctx, id)
		})
	})
	if err != nil {
		s.countError("delete")
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			return err
		}
		return s.translate(err, "bond")
	}
	s.countOp("delete")
	return nil
}

// History returns the bond's audit trail, newest first. It deliberately
// skips the existence check: history survives bond deletion.
func (s *Service) History(ctx context.Context, id domain.BondID) ([]history.Entry, error) {
	entries, err := retry.Fetch(ctx, s.runner, "bond history", func(ctx context.Context) ([]history.Entry, error) {
		return s.recorder.List(ctx, id)
	})
	if err != nil {
		return nil, s.translate(err, "bond history")
	}
	return entries, nil
}

func (s *Service) fetch(ctx context.Context, id domain.BondID) (*models.Bond, error) {
	bond, err := retry.Fetch(ctx, s.runner, "bond get", func(ctx context.Context) (*models.Bond, error) {
		return s.bonds.Get(ctx, id)
	})
	if err != nil {
		return nil, s.translate(err, "bond")
	}
	return bond, nil
}

func (s *Service) detailView(ctx context.Context, bond *models.Bond) *View {
	result := status.Derive(bond.EffectiveDate, bond.DateOfCancellation, requestcontext.Now(ctx), status.MissingDatesUnknown)
	return &View{Bond: *bond, Status: result.Status, DaysRemaining: result.DaysRemaining}
}

func (s *Service) translate(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" conflict")
	default:
		return err
	}
}

func (s *Service) countOp(op string) {
	if s.metrics != nil {
		s.metrics.Operations.WithLabelValues(op).Inc()
	}
}

func (s *Service) countError(op string) {
	if s.metrics != nil {
		s.metrics.OperationErrors.WithLabelValues(op).Inc()
	}
}
