package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/flagsnap/pkg/dotdir"
)

// EnvPrefix is the prefix of environment variables read by InitViper.
const EnvPrefix = "FLAGSNAP"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FLAGSNAP_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FLAGSNAP_IDENTITY_USER_KEY, FLAGSNAP_FEED_URL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Every key is registered, even with an empty default, so that
	// AutomaticEnv resolves it.
	v.SetDefault("endpoint.mode", d.Endpoint.Mode)
	v.SetDefault("endpoint.url", d.Endpoint.URL)
	v.SetDefault("endpoint.auth", d.Endpoint.Auth)
	v.SetDefault("endpoint.tags", d.Endpoint.Tags)

	v.SetDefault("feed.url", d.Feed.URL)
	v.SetDefault("feed.timeout", d.Feed.Timeout)

	v.SetDefault("identity.user_key", d.Identity.UserKey)
	v.SetDefault("identity.device_key", d.Identity.DeviceKey)
	v.SetDefault("identity.device_model", d.Identity.DeviceModel)
	v.SetDefault("identity.app_key", d.Identity.AppKey)
	v.SetDefault("identity.base_url", d.Identity.BaseURL)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.timestamped", d.Output.Timestamped)
	v.SetDefault("output.canonical", d.Output.Canonical)
	v.SetDefault("output.filtered", d.Output.Filtered)

	v.SetDefault("parser.string_aware", d.Parser.StringAware)

	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)
}
