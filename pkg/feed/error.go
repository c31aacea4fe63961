package feed

import (
	"fmt"
)

// NetworkError is returned when the feed cannot be retrieved: transport
// failures, timeouts and non-200 responses.
type NetworkError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetching feed %s: timed out", e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetching feed %s: unexpected status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetching feed %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is returned when a feed body does not contain an item with
// extractable version fields.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing feed: %s: %v", e.Reason, e.Err)
	}
	return "parsing feed: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
