package holders

import "errors"

var (
	// ErrUnauthorized is returned when an administrative call comes from an
	// origin the Authorizer does not trust.
	ErrUnauthorized = errors.New("holders: origin is not privileged")

	// ErrArithmeticOverflow is returned when a score exceeds the configured
	// balance bound. The engine turns it into a skipped cycle.
	ErrArithmeticOverflow = errors.New("holders: arithmetic overflow")

	// ErrBlockOutOfOrder is returned when the per-block hook is called with a
	// block number that is not greater than the last processed one.
	ErrBlockOutOfOrder = errors.New("holders: block out of order")

	// ErrMissingBackend is returned by New when a collaborator is nil.
	ErrMissingBackend = errors.New("holders: missing backend")
)
