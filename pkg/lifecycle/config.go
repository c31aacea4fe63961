package lifecycle

import (
	"net/http"

	"github.com/papercomputeco/flagsnap/pkg/endpoint"
	"github.com/papercomputeco/flagsnap/pkg/sse"
)

const defaultReadSize = 32 * 1024

// Config is the controller configuration.
type Config struct {
	// Endpoint is handed to the resolver at the start of the run.
	Endpoint endpoint.Config

	// HTTPClient opens the stream. It must not set a Timeout, since the
	// stream is long lived; cancellation comes from the run context.
	// Defaults to a client without a timeout.
	HTTPClient *http.Client

	// ParserOptions configure the SSE frame parser.
	ParserOptions []sse.Option

	// RunID tags logs, history records and events. Generated when empty.
	RunID string

	// ReadSize is the size of each read from the stream body.
	ReadSize int
}
