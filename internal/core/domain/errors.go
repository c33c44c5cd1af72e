package domain

import "errors"

// Error kinds. Service-level errors wrap exactly one of these so handlers
// can map any failure to a status code with errors.Is.
var (
	// ErrNotFound: referenced unit/transfer/member does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict: the operation would violate an invariant
	// (child exists on delete, duplicate active transfer, stale-state approval)
	ErrConflict = errors.New("conflict")

	// ErrForbidden: caller lacks scope/role to act on the target
	ErrForbidden = errors.New("forbidden")

	// ErrIntegrity: structural tree corruption detected on a write path.
	// Never raised from best-effort read paths (repair, subtree walk).
	ErrIntegrity = errors.New("integrity error")

	// ErrValidation: malformed input (missing required IDs etc.)
	ErrValidation = errors.New("validation error")
)
