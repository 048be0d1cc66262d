package service

import "errors"

// Error kinds surfaced to callers. Concrete errors wrap one of these with
// a message describing the violated constraint, so callers match them
// with errors.Is and show err.Error() to the client.
var (
	// ErrBadRequest covers malformed identifiers, missing required fields
	// and out-of-range values.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound means no player has the requested identifier.
	ErrNotFound = errors.New("player not found")
)
