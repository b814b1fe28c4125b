package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and blob backends return these
// (optionally wrapped) so services can translate them into domain errors.
//
// - ErrNotFound: entity or blob does not exist
// - ErrAlreadyUsed: a uniqueness constraint rejected the write
// - ErrConflict: the row changed since it was read (optimistic version mismatch)
// - ErrUnavailable: backend temporarily unavailable, safe to retry
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
