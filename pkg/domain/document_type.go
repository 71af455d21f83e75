package domain

import dErrors "fidelis/pkg/domain-errors"

// DocumentType classifies a stored file attached to a bond.
type DocumentType string

const (
	// DocumentTypeProfile is the bearer's photo. Single-valued per bond:
	// a new upload supersedes the previous one.
	DocumentTypeProfile DocumentType = "profile"
	// DocumentTypeDesignation is proof of designation. Multi-valued.
	DocumentTypeDesignation DocumentType = "designation"
	// DocumentTypeRisk is supporting evidence for the risk number. Multi-valued.
	DocumentTypeRisk DocumentType = "risk"
)

// DocumentTypes lists every document type in catalog order.
var DocumentTypes = []DocumentType{DocumentTypeProfile, DocumentTypeDesignation, DocumentTypeRisk}

// ParseDocumentType validates a raw document type string.
func ParseDocumentType(raw string) (DocumentType, error) {
	switch DocumentType(raw) {
	case DocumentTypeProfile, DocumentTypeDesignation, DocumentTypeRisk:
		return DocumentType(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown document type: "+raw)
	}
}

// Folder returns the object store prefix for this document type.
func (t DocumentType) Folder() string {
	switch t {
	case DocumentTypeProfile:
		return "profiles"
	case DocumentTypeDesignation:
		return "designations"
	case DocumentTypeRisk:
		return "risks"
	default:
		return "misc"
	}
}

// SingleValued reports whether a bond may hold at most one live document
// of this type.
func (t DocumentType) SingleValued() bool { return t == DocumentTypeProfile }
