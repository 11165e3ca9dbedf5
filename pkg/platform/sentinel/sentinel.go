package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about rows, not validation failures:
// - ErrNotFound: row does not exist in store
// - ErrConflict: a uniqueness rule rejected the write (e.g. overlapping active recovery)
// - ErrPreconditionFailed: row state no longer matches what the atomic unit
//   requires; the unit rolled back without touching anything
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidState       = errors.New("invalid state")
	ErrUnavailable        = errors.New("unavailable")
)
