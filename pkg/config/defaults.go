package config

const (
	defaultEndpointMode = "auto"
	defaultFeedTimeout  = "30s"
	defaultOutputDir    = "."
	defaultKafkaTopic   = "flagsnap.snapshots"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Endpoint: EndpointConfig{
			Mode: defaultEndpointMode,
		},
		Feed: FeedConfig{
			Timeout: defaultFeedTimeout,
		},
		Output: OutputConfig{
			Dir:         defaultOutputDir,
			Timestamped: true,
			Canonical:   true,
			Filtered:    false,
		},
		Parser: ParserConfig{
			StringAware: true,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
