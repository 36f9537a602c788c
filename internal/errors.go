package internal

import "errors"

var (
	// ErrObjectNotFound is returned when a hash is referenced but no
	// object with that hash exists in the store.
	ErrObjectNotFound = errors.New("object not found")

	// ErrMalformedObject is returned when stored bytes fail to decode.
	ErrMalformedObject = errors.New("malformed object")

	// ErrUnknownParent is returned when a commit references a parent
	// that does not exist in the graph. Never retried.
	ErrUnknownParent = errors.New("unknown parent commit")

	// ErrConflict is returned by compare-and-swap ref updates when the
	// current target does not match the expected value. Retryable.
	ErrConflict = errors.New("ref update conflict")

	ErrRefExists   = errors.New("ref already exists")
	ErrRefNotFound = errors.New("ref not found")

	ErrNotFound       = errors.New("memory not found")
	ErrInvalidPath    = errors.New("invalid memory path")
	ErrInvalidAgentID = errors.New("invalid agent id")
	ErrNoIndex        = errors.New("no vector index available")
	ErrNothingStaged  = errors.New("nothing staged")
)
