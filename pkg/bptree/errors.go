package bptree

import "errors"

// Sentinel errors returned by tree operations. Callers compare with
// errors.Is; none of these wrap an underlying OS error, which is instead
// returned directly (and treated as the "error" kind described for I/O
// failures).
var (
	// ErrNotFound is returned by Search and SearchRange when no item
	// matches, and by Min/Max when the tree is empty. Enumerate on an
	// empty tree returns an empty result and a nil error.
	ErrNotFound = errors.New("bptree: not found")

	// ErrRangeInverted is returned by SearchRange when kmax < kmin.
	ErrRangeInverted = errors.New("bptree: range max less than min")

	// ErrDuplicateKey is returned by Insert under DupReject when the key
	// already exists.
	ErrDuplicateKey = errors.New("bptree: duplicate key")

	// ErrSignatureMismatch is returned by Open when the file's magic does
	// not read 'BTDB'.
	ErrSignatureMismatch = errors.New("bptree: bad file signature")

	// ErrBranchingFactorMismatch is returned by Open when an existing
	// file was built with a different branching factor than this binary's
	// compile-time BranchFactor.
	ErrBranchingFactorMismatch = errors.New("bptree: branching factor mismatch")

	// errConsistency marks an internal invariant violation surfaced as
	// the "error" kind (never "not_found").
	errConsistency = errors.New("bptree: consistency check failed")
)
