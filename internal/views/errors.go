package views

import "errors"

// Form errors.
var (
	ErrEmptyTitle    = errors.New("title is required")
	ErrInvalidAmount = errors.New("amount must be a number")
	// ErrNotSaved is returned by form submissions the server did not accept.
	// The cause has already been logged by the mirror.
	ErrNotSaved = errors.New("not saved")
	// ErrUnknownItem is returned for an id that is not in the local list.
	// No request is sent.
	ErrUnknownItem = errors.New("unknown item")
)
