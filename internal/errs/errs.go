// Package errs defines the error kinds reported by the binlens engine.
// Callers match them with errors.Is; components wrap them with context.
package errs

import "errors"

var (
	// ErrOutOfBounds is returned when a window extends past the end of the buffer.
	ErrOutOfBounds = errors.New("window out of bounds")

	// ErrInvalidInput is returned for unparsable values, unknown type keys,
	// empty search terms and buffers shorter than the requested width.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValueNotFound is returned when a full scan finds no matching window.
	ErrValueNotFound = errors.New("value not found")

	// ErrNoBufferLoaded is returned by buffer operations attempted before a load.
	ErrNoBufferLoaded = errors.New("no buffer loaded")
)
