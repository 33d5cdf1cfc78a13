package domain

import "errors"

// Sentinel errors for the failure classes the client surfaces to the
// user-visible layer. Callers classify with errors.Is; the wrapped
// message carries the displayable detail.
var (
	// ErrAuth covers sign-in and sign-out failures.
	ErrAuth = errors.New("authentication failed")

	// ErrQuery covers snapshot reload failures. A failed reload never
	// blanks the previous snapshot.
	ErrQuery = errors.New("query failed")

	// ErrMutation covers insert/delete failures.
	ErrMutation = errors.New("mutation failed")

	// ErrValidation covers requests rejected before any backend call.
	ErrValidation = errors.New("validation failed")

	// ErrConfigMissing means a backend capability is unavailable. The
	// client degrades to a labeled non-functional state instead of
	// crashing.
	ErrConfigMissing = errors.New("backend not configured")
)
