package snapshot

import "errors"

// ParseError is returned when the accumulated stream data is not a valid
// JSON flag mapping.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parsing snapshot: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoFlags is returned when a version is requested from an empty mapping.
	ErrNoFlags = errors.New("snapshot contains no flags")

	// ErrNoVersion is returned when the first flag has neither a version
	// nor a flagVersion field.
	ErrNoVersion = errors.New("first flag has no version field")
)
