// Package history maintains the append-only audit trail of bond lifecycle
// events. Recording is best-effort: a failed history write is logged and
// swallowed so it can never roll back or fail the mutation that triggered it.
package history

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"fidelis/internal/bond/models"
	"fidelis/pkg/domain"
	"fidelis/pkg/requestcontext"
)

// Store persists history entries. Append-only by contract.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// ListByBond returns entries newest first.
	ListByBond(ctx context.Context, bondID domain.BondID) ([]Entry, error)
}

// Recorder builds and persists history entries for bond mutations.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record captures a lifecycle event for bond. For UPDATE and RENEW, oldBond
// supplies the pre-image and the entry carries a field-level diff; for the
// other change types oldBond is ignored. Write failures are logged, never
// returned: the triggering mutation has already been persisted and must
// report success regardless.
func (r *Recorder) Record(ctx context.Context, bond *models.Bond, changeType ChangeType, oldBond *models.Bond) {
	entry := Entry{
		ID:         uuid.New(),
		BondID:     bond.ID,
		ChangeType: changeType,
		Fields:     bond.Fields(),
		CreatedAt:  requestcontext.Now(ctx),
	}

	if oldBond != nil && (changeType == ChangeUpdate || changeType == ChangeRenew) {
		entry.ChangedFields, entry.OldValues, entry.NewValues = Diff(oldBond.Fields(), bond.Fields())
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "history write failed",
			"bond_id", bond.ID.String(),
			"change_type", string(changeType),
			"error", err,
		)
	}
}

// List returns the audit trail for a bond, newest first.
func (r *Recorder) List(ctx context.Context, bondID domain.BondID) ([]Entry, error) {
	return r.store.ListByBond(ctx, bondID)
}
