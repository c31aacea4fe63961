// Package clilog builds a command's logger from the global --debug,
// --log-format and --log-file flags.
package clilog

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/flagsnap/pkg/logger"
)

// New returns the logger for cmd and a func that closes the log file.
// Console output goes to the command's stderr.
func New(cmd *cobra.Command) (*slog.Logger, func() error, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("log-format")
	file, _ := cmd.Flags().GetString("log-file")

	return logger.NewCLI(logger.CLIConfig{
		Debug:   debug,
		Format:  format,
		File:    file,
		Console: cmd.ErrOrStderr(),
	})
}
