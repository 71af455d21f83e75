package bulkimport

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"fidelis/internal/bond/metrics"
	"fidelis/internal/bond/models"
	"fidelis/internal/bond/service"
	dErrors "fidelis/pkg/domain-errors"
)

// Creator is the slice of the lifecycle service an import needs.
type Creator interface {
	Create(ctx context.Context, in models.Input, idempotencyKey string) (*service.View, error)
}

// RowFailure reports one row that parsed but failed to persist.
type RowFailure struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Summary is the outcome of one import run. Skipped layout rows are not
// counted: Total covers only rows that carried data.
type Summary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Failures  []RowFailure `json:"failures,omitempty"`
}

// Importer feeds parsed rows through the lifecycle service, isolating
// per-row failures so one bad row never aborts the rest of the sheet.
type Importer struct {
	creator Creator
	logger  *slog.Logger
	metrics *metrics.Metrics
	maxRows int
	workers int
}

type Option func(*Importer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) { i.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Importer) { i.metrics = m }
}

// WithMaxRows caps the number of data rows accepted per sheet. Zero means
// no cap.
func WithMaxRows(n int) Option {
	return func(i *Importer) { i.maxRows = n }
}

// WithWorkers sets the number of rows persisted concurrently.
func WithWorkers(n int) Option {
	return func(i *Importer) { i.workers = n }
}

func NewImporter(creator Creator, opts ...Option) *Importer {
	i := &Importer{
		creator: creator,
		logger:  slog.New(slog.DiscardHandler),
		workers: 4,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFile parses an xlsx stream and imports its rows.
func (i *Importer) ImportFile(ctx context.Context, r io.Reader) (*Summary, error) {
	rows, err := ParseFile(r)
	if err != nil {
		return nil, err
	}
	return i.ImportRows(ctx, rows)
}

// ImportRows submits each row through the lifecycle service as an
// independent concurrent task. A failing row is counted and logged; its
// siblings proceed.
func (i *Importer) ImportRows(ctx context.Context, rows []Row) (*Summary, error) {
	if i.maxRows > 0 && len(rows) > i.maxRows {
		return nil, dErrors.Newf(dErrors.CodeValidation, "sheet has %d data rows, limit is %d", len(rows), i.maxRows)
	}

	summary := &Summary{Total: len(rows)}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)

	for _, row := range rows {
		g.Go(func() error {
			_, err := i.creator.Create(gctx, row.Input, "")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.Failures = append(summary.Failures, RowFailure{
					Row:   row.Number,
					Name:  row.Input.LastName + ", " + row.Input.FirstName,
					Error: err.Error(),
				})
				i.logger.WarnContext(gctx, "import row failed",
					"row", row.Number, "error", err)
				i.countRow("failed")
				return nil
			}
			summary.Succeeded++
			i.countRow("succeeded")
			return nil
		})
	}

	// Tasks absorb their own failures; Wait only reflects cancellation.
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (i *Importer) countRow(outcome string) {
	if i.metrics != nil {
		i.metrics.ImportRows.WithLabelValues(outcome).Inc()
	}
}
