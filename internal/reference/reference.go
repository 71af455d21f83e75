// Package reference serves the lookup tables behind form dropdowns: units,
// designations and bond signatories. Read-only at the API; rows are seeded
// through migrations or ops tooling.
package reference

import "context"

// Kind names one lookup table.
type Kind string

const (
	KindUnits        Kind = "units"
	KindDesignations Kind = "designations"
	KindSignatories  Kind = "signatories"
)

// Kinds lists the served tables in display order.
var Kinds = []Kind{KindUnits, KindDesignations, KindSignatories}

// Item is one lookup row.
type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Store reads lookup rows.
type Store interface {
	List(ctx context.Context, kind Kind) ([]Item, error)
}
