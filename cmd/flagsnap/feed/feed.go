// Package feedcmder provides the feed command, which reports the newest
// release listed in the appcast feed.
package feedcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/flagsnap/cmd/flagsnap/clilog"
	"github.com/papercomputeco/flagsnap/pkg/cliui"
	"github.com/papercomputeco/flagsnap/pkg/config"
	"github.com/papercomputeco/flagsnap/pkg/endpoint"
	"github.com/papercomputeco/flagsnap/pkg/feed"
	"github.com/papercomputeco/flagsnap/pkg/logger"
)

type feedCommander struct {
	feedURL     string
	feedTimeout string
	jsonOut     bool
	notes       bool

	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

var registeredFlags = []string{
	config.FlagFeedURL,
	config.FlagFeedTimeout,
}

const feedLongDesc string = `Fetch the appcast feed and show the newest release.

Prints the build number, short version and the identification tags that a
dynamic capture would send. Use --json for machine-readable output and
--notes to render the release notes.

Examples:
  flagsnap feed
  flagsnap feed --json
  flagsnap feed --feed-url https://releases.example.com/appcast.xml --notes`

const feedShortDesc string = "Show the newest release in the appcast feed"

func NewFeedCmd() *cobra.Command {
	cmder := &feedCommander{}

	cmd := &cobra.Command{
		Use:   "feed",
		Short: feedShortDesc,
		Long:  feedLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, registeredFlags)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, closeLog, err := clilog.New(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.logger = log

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagFeedURL, &cmder.feedURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagFeedTimeout, &cmder.feedTimeout)
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the release as JSON")
	cmd.Flags().BoolVar(&cmder.notes, "notes", false, "Render the release notes")

	return cmd
}

func (c *feedCommander) run(ctx context.Context) error {
	url := c.v.GetString("feed.url")
	if url == "" {
		return &endpoint.ConfigurationError{Missing: []string{"feed url"}}
	}

	fetcher := feed.NewFetcher(
		feed.WithTimeout(c.v.GetDuration("feed.timeout")),
		feed.WithLogger(c.logger),
	)

	var info *feed.BuildInfo
	load := func() error {
		body, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return err
		}
		info, err = feed.Parse([]byte(body))
		return err
	}

	var err error
	if !c.jsonOut && logger.IsTerminal(c.errOut) {
		err = cliui.Step(c.errOut, "Fetching release feed", load)
	} else {
		err = load()
	}
	if err != nil {
		var perr *feed.ParseError
		if errors.As(err, &perr) {
			return fmt.Errorf("parsing release feed: %w", err)
		}
		return fmt.Errorf("fetching release feed: %w", err)
	}

	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintln(c.out)
	cliui.KeyValue(c.out, "build", info.BuildNumber)
	cliui.KeyValue(c.out, "version", info.ShortVersion)
	cliui.KeyValue(c.out, "published", info.PublishedAt)
	cliui.KeyValue(c.out, "download", info.DownloadURL)
	cliui.KeyValue(c.out, "tags", endpoint.TagsHeader(info))
	fmt.Fprintln(c.out)

	if c.notes && info.Description != "" {
		rendered, err := cliui.RenderMarkdown(info.Description)
		if err != nil {
			c.logger.Debug("rendering release notes", "error", err)
		}
		fmt.Fprint(c.out, rendered)
	}

	return nil
}
