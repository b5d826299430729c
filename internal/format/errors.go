package format

import "errors"

var (
	// ErrSignatureMismatch indicates the database header had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a fixed-size structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMalformed indicates a declared length runs past the end of the buffer.
	ErrMalformed = errors.New("format: malformed record")
)
