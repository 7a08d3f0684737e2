package db

import "errors"

// ErrMissing means that a record it requires is not found.
var ErrMissing = errors.New("missing")

// ErrTooMuch means that records are found more than expected.
var ErrTooMuch = errors.New("too much")

// ErrConflict means that a record it tried to create collides with an existing one.
var ErrConflict = errors.New("conflict")
