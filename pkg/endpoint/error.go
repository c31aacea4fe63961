package endpoint

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned when a setting required for resolution is
// missing. It is never recovered by falling back to a static descriptor.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// ResolutionError is returned when dynamic derivation fails and no static
// descriptor is available to fall back to. Err is usually a
// *feed.NetworkError or *feed.ParseError.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving endpoint: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
