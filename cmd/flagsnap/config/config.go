// Package configcmder provides the config command for managing persistent
// flagsnap configuration stored in the .flagsnap/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent flagsnap configuration.

Configuration is stored as config.toml in the .flagsnap/ directory and provides
default values for command flags. CLI flags and FLAGSNAP_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  endpoint.mode, endpoint.url, endpoint.auth, endpoint.tags,
  feed.url, feed.timeout,
  identity.user_key, identity.device_key, identity.device_model,
  identity.app_key, identity.base_url,
  output.dir, output.timestamped, output.canonical, output.filtered,
  parser.string_aware,
  storage.sqlite_path, storage.postgres_dsn,
  events.kafka_brokers, events.kafka_topic

Use subcommands to get, set, or list configuration values:
  flagsnap config set <key> <value>    Set a configuration value
  flagsnap config get <key>            Get a configuration value
  flagsnap config list                 List all configuration values

Examples:
  flagsnap config set feed.url https://releases.example.com/appcast.xml
  flagsnap config set output.filtered true
  flagsnap config get endpoint.mode
  flagsnap config list`

const configShortDesc string = "Manage persistent flagsnap configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
