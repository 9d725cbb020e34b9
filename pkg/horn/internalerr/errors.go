package internalerr

import "errors"

// Proof search outcomes and invariant violations
var (
	ErrTheta            = errors.New("only variables can be substituted")
	ErrUnify            = errors.New("no unifier found")
	ErrDepthLimitExceed = errors.New("proof depth limit exceeded")
	ErrCycleProof       = errors.New("circular proof")
	ErrProofNotFound    = errors.New("no valid proof path found")
)

// Loading errors
var (
	ErrParse = errors.New("malformed input")
	ErrFile  = errors.New("cannot read file")
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// IsUnprovable reports whether err is one of the search failures that a
// caller should present uniformly as "could not be proved".
func IsUnprovable(err error) bool {
	return errors.Is(err, ErrProofNotFound) ||
		errors.Is(err, ErrCycleProof) ||
		errors.Is(err, ErrDepthLimitExceed)
}

// IsMalformed reports whether err came from reading or parsing input.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrFile)
}
