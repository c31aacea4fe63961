package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamEnded is returned when the server closes the stream before a
	// snapshot was delivered.
	ErrStreamEnded = errors.New("stream ended before a snapshot was delivered")

	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("controller already started")

	// ErrShutdown is returned by Run when Shutdown was called first.
	ErrShutdown = errors.New("controller is shut down")
)

// StatusError is returned when the stream endpoint answers with a status
// other than 200. It is fatal; the stream is not retried.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stream returned %s", e.Status)
}
