package domain

import (
	"github.com/google/uuid"

	dErrors "fidelis/pkg/domain-errors"
)

// Typed identifiers. Wrapping uuid.UUID keeps a BondID from being passed
// where a DocumentID is expected; the compiler enforces the distinction.
type (
	BondID     uuid.UUID
	DocumentID uuid.UUID
	SessionID  uuid.UUID
)

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is not a valid UUID")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return id, nil
}

// ParseBondID validates and converts a raw string into a BondID.
func ParseBondID(raw string) (BondID, error) {
	id, err := parseUUID(raw, "bond id")
	if err != nil {
		return BondID{}, err
	}
	return BondID(id), nil
}

// ParseDocumentID validates and converts a raw string into a DocumentID.
func ParseDocumentID(raw string) (DocumentID, error) {
	id, err := parseUUID(raw, "document id")
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(id), nil
}

// ParseSessionID validates and converts a raw string into a SessionID.
func ParseSessionID(raw string) (SessionID, error) {
	id, err := parseUUID(raw, "session id")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(id), nil
}

func (id BondID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string  { return uuid.UUID(id).String() }

func (id BondID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the wrapped UUIDs rendering as canonical strings in
// JSON bodies and log fields.

func (id BondID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *BondID) UnmarshalText(b []byte) error {
	parsed, err := ParseBondID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id DocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewBondID returns a fresh random BondID.
func NewBondID() BondID { return BondID(uuid.New()) }

// NewDocumentID returns a fresh random DocumentID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }
