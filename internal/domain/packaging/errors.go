package packaging

import "errors"

var (
	// ErrNotFound is returned when a manifest or the directory to archive does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFormat is returned when a manifest is not well-formed JSON.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnexpectedFormat is returned when a manifest parses but its top level is
	// neither an object nor an array starting with an object.
	ErrUnexpectedFormat = errors.New("unexpected format")
	// ErrIO wraps read, write, delete and archive-build failures.
	ErrIO = errors.New("i/o error")
)
