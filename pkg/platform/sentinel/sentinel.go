package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the object store, and the
// session provider return these (optionally wrapped) so services can translate
// them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in a store
// - ErrConflict: a uniqueness or idempotency constraint was hit
// - ErrExpired: session or token has expired
// - ErrInvalidState: record in the wrong state for the requested operation
// - ErrUnavailable: remote collaborator temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
