package artifact

import "errors"

// Common artifact errors.
var (
	// ErrNotFound is returned when an artifact is not found.
	ErrNotFound = errors.New("artifact not found")
)
