package history

import (
	"time"

	"github.com/google/uuid"

	"fidelis/pkg/domain"
)

// ChangeType tags what kind of lifecycle event an entry captures. Archive
// and restore deliberately have no change type: the source system never
// recorded them, and consumers of the audit trail rely on that asymmetry.
type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
	ChangeRenew  ChangeType = "RENEW"
)

// Entry is an immutable point-in-time snapshot of one bond lifecycle event.
// Entries are append-only and outlive their bond: BondID stays referential
// even after the bond row is deleted.
type Entry struct {
	ID         uuid.UUID     `json:"id"`
	BondID     domain.BondID `json:"bond_id"`
	ChangeType ChangeType    `json:"change_type"`

	// Fields is the bond's descriptive fields at event time.
	Fields map[string]string `json:"fields"`

	// ChangedFields with the parallel value maps are populated for UPDATE
	// and RENEW; empty otherwise.
	ChangedFields []string          `json:"changed_fields,omitempty"`
	OldValues     map[string]string `json:"old_values,omitempty"`
	NewValues     map[string]string `json:"new_values,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
