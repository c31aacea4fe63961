// Package flagsnapcmder
package flagsnapcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/flagsnap/cmd/flagsnap/config"
	feedcmder "github.com/papercomputeco/flagsnap/cmd/flagsnap/feed"
	fetchcmder "github.com/papercomputeco/flagsnap/cmd/flagsnap/fetch"
	historycmder "github.com/papercomputeco/flagsnap/cmd/flagsnap/history"
	versioncmder "github.com/papercomputeco/flagsnap/cmd/version"
	"github.com/papercomputeco/flagsnap/pkg/logger"
)

const flagsnapLongDesc string = `Flagsnap captures feature-flag snapshots from a streaming flag service.

Run captures using:
  flagsnap fetch       Capture one snapshot and exit
  flagsnap feed        Show the newest release from the appcast feed
  flagsnap history     List snapshots recorded in the history store
  flagsnap config      Manage persistent configuration`

const flagsnapShortDesc string = "Flagsnap - Feature Flag Snapshots"

func NewFlagsnapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "flagsnap",
		Short:        flagsnapShortDesc,
		Long:         flagsnapLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-format", logger.FormatAuto, "Console log format (auto, text, json, pretty)")
	cmd.PersistentFlags().String("log-file", "", "Also append JSON logs to this file")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.flagsnap or ~/.flagsnap)")

	// Add subcommands
	cmd.AddCommand(fetchcmder.NewFetchCmd())
	cmd.AddCommand(feedcmder.NewFeedCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
