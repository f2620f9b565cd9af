package domain

import "errors"

// Validation and permission errors
var (
	ErrPermissionDenied  = errors.New("actor lacks the required role for this action")
	ErrCapacityExceeded  = errors.New("team roster is at capacity")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateTag      = errors.New("team tag is already taken")
	ErrInvalidOperation  = errors.New("operation is not valid for this target")
	ErrInvalidTag        = errors.New("team tag must be 3-5 symbols")
)

// War and alliance errors
var (
	ErrAlreadyAtWar   = errors.New("an active war already exists between these teams")
	ErrPactViolation  = errors.New("action violates an active alliance pact")
	ErrConflictingWar = errors.New("proposed alliance members are at war")
	ErrWarCeased      = errors.New("war has ceased and is immutable")
)

// ErrStaleEvent marks a duplicate idempotency key. Callers treat it as a
// no-op success, never as a failure surfaced to the event pipeline.
var ErrStaleEvent = errors.New("event was already applied")

// Lookup errors
var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrMemberNotFound   = errors.New("member not found in team")
	ErrInviteNotFound   = errors.New("invitation not found")
	ErrSectorNotFound   = errors.New("sector not found")
	ErrWarNotFound      = errors.New("war not found")
	ErrAllianceNotFound = errors.New("alliance not found")
)
