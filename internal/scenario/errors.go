package scenario

import "errors"

var (
	// ErrMalformed is returned for input that cannot be parsed.
	ErrMalformed = errors.New("malformed scenario")
	// ErrUnsupportedFormat is returned when no loader handles a file.
	ErrUnsupportedFormat = errors.New("unsupported scenario format")
)
