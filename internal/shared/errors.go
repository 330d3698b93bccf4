package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery indicates a malformed listing or lookup request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnavailable indicates the record store cannot serve requests right now.
	ErrUnavailable = errors.New("record store unavailable")
)
