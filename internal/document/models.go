package document

import (
	"context"
	"time"

	"fidelis/pkg/domain"
)

// Document is one stored file owned by exactly one bond under exactly one
// document type.
//
// Invariants:
//   - profile is single-valued per bond: the newest upload supersedes the
//     previous one, which is deleted only after the new upload succeeds.
//   - designation and risk are multi-valued.
//   - soft-deleted rows are excluded from every listing.
type Document struct {
	ID     domain.DocumentID   `json:"id"`
	BondID domain.BondID       `json:"bond_id"`
	Type   domain.DocumentType `json:"document_type"`

	// FileName is the generated unique name: type_bondID_timestamp_original.
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// StoragePath is where the backing object lives in the object store.
func (d *Document) StoragePath() string {
	return d.Type.Folder() + "/" + d.FileName
}

// MetadataStore persists document rows.
type MetadataStore interface {
	Insert(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id domain.DocumentID) (*Document, error)
	// ListByBond returns non-deleted documents for a bond, newest first.
	ListByBond(ctx context.Context, bondID domain.BondID) ([]Document, error)
	// ListByType returns non-deleted documents of one type, updated_at desc.
	ListByType(ctx context.Context, bondID domain.BondID, docType domain.DocumentType) ([]Document, error)
	SoftDelete(ctx context.Context, id domain.DocumentID, at time.Time) error
	// HardDeleteByBond removes every row for the bond, soft-deleted included,
	// and returns the removed documents so their objects can be released.
	HardDeleteByBond(ctx context.Context, bondID domain.BondID) ([]Document, error)
}
