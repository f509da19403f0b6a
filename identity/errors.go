package identity

import "errors"

var (
	// ErrNotFound is returned by lookups with zero matches. It is a domain
	// signal, not a failure; callers match it with errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrRoleNotFound is returned by AddToRole when the named role has no
	// record in the role kind.
	ErrRoleNotFound = errors.New("role not found")

	// ErrUnsupported is returned by contract operations the backing store
	// cannot express. Such operations fail loudly instead of returning
	// partial results.
	ErrUnsupported = errors.New("operation not supported by the backing store")
)
