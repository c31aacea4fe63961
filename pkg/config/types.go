package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent flagsnap configuration stored as
// config.toml in the .flagsnap/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Endpoint EndpointConfig `toml:"endpoint"`
	Feed     FeedConfig     `toml:"feed"`
	Identity IdentityConfig `toml:"identity"`
	Output   OutputConfig   `toml:"output"`
	Parser   ParserConfig   `toml:"parser"`
	Storage  StorageConfig  `toml:"storage"`
	Events   EventsConfig   `toml:"events"`
}

// EndpointConfig selects how the stream endpoint is resolved and holds the
// static endpoint used in static mode and as the dynamic fallback.
type EndpointConfig struct {
	Mode string `toml:"mode,omitempty"`
	URL  string `toml:"url,omitempty"`
	Auth string `toml:"auth,omitempty"`
	Tags string `toml:"tags,omitempty"`
}

// FeedConfig holds the release feed settings.
type FeedConfig struct {
	URL     string `toml:"url,omitempty"`
	Timeout string `toml:"timeout,omitempty"`
}

// IdentityConfig holds the secrets used to derive a dynamic endpoint.
type IdentityConfig struct {
	UserKey     string `toml:"user_key,omitempty"`
	DeviceKey   string `toml:"device_key,omitempty"`
	DeviceModel string `toml:"device_model,omitempty"`
	AppKey      string `toml:"app_key,omitempty"`
	BaseURL     string `toml:"base_url,omitempty"`
}

// OutputConfig selects the snapshot files written by "flagsnap fetch".
type OutputConfig struct {
	Dir         string `toml:"dir,omitempty"`
	Timestamped bool   `toml:"timestamped"`
	Canonical   bool   `toml:"canonical"`
	Filtered    bool   `toml:"filtered"`
}

// ParserConfig holds stream parser settings.
type ParserConfig struct {
	StringAware bool `toml:"string_aware"`
}

// StorageConfig holds snapshot history settings. Postgres wins when both
// are set.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig holds the capture event publisher settings. Publishing is
// disabled without brokers.
type EventsConfig struct {
	KafkaBrokers []string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `toml:"kafka_topic,omitempty"`
}

// SplitList flattens comma separated entries and drops blanks, so brokers
// may be given as a TOML array, a repeated flag or "a:9092,b:9092".
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"endpoint.mode": {
		get: func(c *Config) string { return c.Endpoint.Mode },
		set: func(c *Config, v string) error {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "", "auto", "static", "dynamic":
				c.Endpoint.Mode = strings.ToLower(strings.TrimSpace(v))
				return nil
			default:
				return fmt.Errorf("invalid value for endpoint.mode: %q (expected auto, static or dynamic)", v)
			}
		},
	},
	"endpoint.url":  stringKey(func(c *Config) *string { return &c.Endpoint.URL }),
	"endpoint.auth": stringKey(func(c *Config) *string { return &c.Endpoint.Auth }),
	"endpoint.tags": stringKey(func(c *Config) *string { return &c.Endpoint.Tags }),

	"feed.url": stringKey(func(c *Config) *string { return &c.Feed.URL }),
	"feed.timeout": {
		get: func(c *Config) string { return c.Feed.Timeout },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for feed.timeout: %w", err)
			}
			if d <= 0 {
				return fmt.Errorf("invalid value for feed.timeout: must be positive")
			}
			c.Feed.Timeout = v
			return nil
		},
	},

	"identity.user_key":     stringKey(func(c *Config) *string { return &c.Identity.UserKey }),
	"identity.device_key":   stringKey(func(c *Config) *string { return &c.Identity.DeviceKey }),
	"identity.device_model": stringKey(func(c *Config) *string { return &c.Identity.DeviceModel }),
	"identity.app_key":      stringKey(func(c *Config) *string { return &c.Identity.AppKey }),
	"identity.base_url":     stringKey(func(c *Config) *string { return &c.Identity.BaseURL }),

	"output.dir":         stringKey(func(c *Config) *string { return &c.Output.Dir }),
	"output.timestamped": boolKey("output.timestamped", func(c *Config) *bool { return &c.Output.Timestamped }),
	"output.canonical":   boolKey("output.canonical", func(c *Config) *bool { return &c.Output.Canonical }),
	"output.filtered":    boolKey("output.filtered", func(c *Config) *bool { return &c.Output.Filtered }),

	"parser.string_aware": boolKey("parser.string_aware", func(c *Config) *bool { return &c.Parser.StringAware }),

	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"events.kafka_brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.KafkaBrokers, ",") },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = SplitList([]string{v}); return nil },
	},
	"events.kafka_topic": stringKey(func(c *Config) *string { return &c.Events.KafkaTopic }),
}
