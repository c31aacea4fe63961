package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --feed-url
// on both "flagsnap fetch" and "flagsnap feed").
type Flag struct {
	// Name is the long flag name (e.g. "feed-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "feed.url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagMode         = "mode"
	FlagEndpointURL  = "endpoint-url"
	FlagEndpointAuth = "endpoint-auth"
	FlagEndpointTags = "endpoint-tags"
	FlagFeedURL      = "feed-url"
	FlagFeedTimeout  = "feed-timeout"
	FlagBaseURL      = "base-url"
	FlagOutDir       = "out-dir"
	FlagTimestamped  = "timestamped"
	FlagCanonical    = "canonical"
	FlagFiltered     = "filtered"
	FlagStringAware  = "string-aware"
	FlagSQLite       = "sqlite"
	FlagPostgres     = "postgres"
	FlagKafkaBrokers = "kafka-brokers"
	FlagKafkaTopic   = "kafka-topic"
)

// Registry holds every flag shared between commands.
var Registry = FlagSet{
	FlagMode:         {Name: "mode", Shorthand: "m", ViperKey: "endpoint.mode", Description: "Endpoint resolution mode (auto, static, dynamic)"},
	FlagEndpointURL:  {Name: "endpoint-url", ViperKey: "endpoint.url", Description: "Static stream endpoint URL"},
	FlagEndpointAuth: {Name: "endpoint-auth", ViperKey: "endpoint.auth", Description: "Authorization header value for the stream"},
	FlagEndpointTags: {Name: "endpoint-tags", ViperKey: "endpoint.tags", Description: "Tags header value for the static endpoint"},
	FlagFeedURL:      {Name: "feed-url", ViperKey: "feed.url", Description: "Release feed URL"},
	FlagFeedTimeout:  {Name: "feed-timeout", ViperKey: "feed.timeout", Description: "Release feed fetch timeout"},
	FlagBaseURL:      {Name: "base-url", ViperKey: "identity.base_url", Description: "Base URL the encoded connection payload is appended to"},
	FlagOutDir:       {Name: "out-dir", Shorthand: "o", ViperKey: "output.dir", Description: "Directory snapshot files are written to"},
	FlagTimestamped:  {Name: "timestamped", ViperKey: "output.timestamped", Description: "Write a timestamped snapshot file"},
	FlagCanonical:    {Name: "canonical", ViperKey: "output.canonical", Description: "Write the fixed-name canonical snapshot file"},
	FlagFiltered:     {Name: "filtered", ViperKey: "output.filtered", Description: "Write a copy with version fields stripped"},
	FlagStringAware:  {Name: "string-aware", ViperKey: "parser.string_aware", Description: "Ignore braces inside JSON strings when detecting the end of a snapshot"},
	FlagSQLite:       {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database for snapshot history"},
	FlagPostgres:     {Name: "postgres", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string for snapshot history"},
	FlagKafkaBrokers: {Name: "kafka-brokers", ViperKey: "events.kafka_brokers", Description: "Kafka brokers for snapshot events (comma separated)"},
	FlagKafkaTopic:   {Name: "kafka-topic", ViperKey: "events.kafka_topic", Description: "Kafka topic for snapshot events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a string slice flag on cmd from the given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetStringSlice(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringSliceVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only the NewDefaultConfig values.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
