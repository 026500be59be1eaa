package models

import "errors"

// ErrMalformedIdentity is returned when a stored identity cannot be decoded.
var ErrMalformedIdentity = errors.New("malformed identity record")
