// Package fetchcmder provides the fetch command, the one-shot capture of a
// feature-flag snapshot from the event stream.
package fetchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/flagsnap/cmd/flagsnap/clilog"
	"github.com/papercomputeco/flagsnap/cmd/flagsnap/store"
	"github.com/papercomputeco/flagsnap/pkg/cliui"
	"github.com/papercomputeco/flagsnap/pkg/config"
	"github.com/papercomputeco/flagsnap/pkg/endpoint"
	"github.com/papercomputeco/flagsnap/pkg/feed"
	"github.com/papercomputeco/flagsnap/pkg/lifecycle"
	"github.com/papercomputeco/flagsnap/pkg/snapshot"
	"github.com/papercomputeco/flagsnap/pkg/sse"
)

type fetchCommander struct {
	flags fetchFlags

	versionOnly bool

	v      *viper.Viper
	out    io.Writer
	logger *slog.Logger
}

// fetchFlags receive the registry flag values; the effective values are
// read back through viper so env and config.toml apply.
type fetchFlags struct {
	mode, endpointURL, endpointAuth, endpointTags string
	feedURL, feedTimeout, baseURL, outDir          string
	sqlite, postgres, kafkaTopic                   string
	timestamped, canonical, filtered, stringAware  bool
	kafkaBrokers                                   []string
}

var registeredFlags = []string{
	config.FlagMode,
	config.FlagEndpointURL,
	config.FlagEndpointAuth,
	config.FlagEndpointTags,
	config.FlagFeedURL,
	config.FlagFeedTimeout,
	config.FlagBaseURL,
	config.FlagOutDir,
	config.FlagTimestamped,
	config.FlagCanonical,
	config.FlagFiltered,
	config.FlagStringAware,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const fetchLongDesc string = `Capture one feature-flag snapshot and exit.

The stream endpoint is resolved first. In static mode the configured
endpoint.url is used. In dynamic mode the newest release is read from the
appcast feed and the connection URL is derived from it and the identity
settings. Auto mode uses the static endpoint when one is configured and
dynamic resolution otherwise, and falls back to the static endpoint if the
feed cannot be used.

The first complete "put" event is then written out, either as the version
of the first flag (--version-only) or as canonical JSON files under
--out-dir. When a history backend is configured the snapshot is also
recorded there, and announced on Kafka when brokers are configured.

Identity secrets are read from config.toml or the environment:
  FLAGSNAP_IDENTITY_USER_KEY, FLAGSNAP_IDENTITY_DEVICE_KEY,
  FLAGSNAP_IDENTITY_DEVICE_MODEL, FLAGSNAP_IDENTITY_APP_KEY

Examples:
  flagsnap fetch --version-only
  flagsnap fetch --mode static --endpoint-url https://stream.example.com/all
  flagsnap fetch --out-dir ./flags --filtered --sqlite ./flags/history.db`

const fetchShortDesc string = "Capture one feature-flag snapshot"

func NewFetchCmd() *cobra.Command {
	cmder := &fetchCommander{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: fetchShortDesc,
		Long:  fetchLongDesc,
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
			cmder.logger = log

			return cmder.run(cmd.Context())
		},
	}

	f := &cmder.flags
	config.AddStringFlag(cmd, config.Registry, config.FlagMode, &f.mode)
	config.AddStringFlag(cmd, config.Registry, config.FlagEndpointURL, &f.endpointURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagEndpointAuth, &f.endpointAuth)
	config.AddStringFlag(cmd, config.Registry, config.FlagEndpointTags, &f.endpointTags)
	config.AddStringFlag(cmd, config.Registry, config.FlagFeedURL, &f.feedURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagFeedTimeout, &f.feedTimeout)
	config.AddStringFlag(cmd, config.Registry, config.FlagBaseURL, &f.baseURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagOutDir, &f.outDir)
	config.AddBoolFlag(cmd, config.Registry, config.FlagTimestamped, &f.timestamped)
	config.AddBoolFlag(cmd, config.Registry, config.FlagCanonical, &f.canonical)
	config.AddBoolFlag(cmd, config.Registry, config.FlagFiltered, &f.filtered)
	config.AddBoolFlag(cmd, config.Registry, config.FlagStringAware, &f.stringAware)
	config.AddStringFlag(cmd, config.Registry, config.FlagSQLite, &f.sqlite)
	config.AddStringFlag(cmd, config.Registry, config.FlagPostgres, &f.postgres)
	config.AddStringSliceFlag(cmd, config.Registry, config.FlagKafkaBrokers, &f.kafkaBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagKafkaTopic, &f.kafkaTopic)

	cmd.Flags().BoolVar(&cmder.versionOnly, "version-only", false, "Print only the version of the first flag instead of writing files")

	return cmd
}

func (c *fetchCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	endpointCfg, err := c.endpointConfig()
	if err != nil {
		return err
	}

	sink, closeSink, err := c.buildSink(ctx)
	if err != nil {
		return err
	}
	defer closeSink()

	fetcher := feed.NewFetcher(
		feed.WithTimeout(c.v.GetDuration("feed.timeout")),
		feed.WithLogger(c.logger),
	)
	resolver := endpoint.NewResolver(fetcher, endpoint.WithResolverLogger(c.logger))

	ctrl, err := lifecycle.New(lifecycle.Config{
		Endpoint:      endpointCfg,
		ParserOptions: []sse.Option{sse.WithStringAware(c.v.GetBool("parser.string_aware"))},
	}, resolver, sink, c.logger)
	if err != nil {
		return err
	}

	c.logger.Debug("starting capture", "run_id", ctrl.RunID(), "mode", endpointCfg.Mode.String())
	return ctrl.Run(ctx)
}

func (c *fetchCommander) endpointConfig() (endpoint.Config, error) {
	mode, err := endpoint.ParseMode(c.v.GetString("endpoint.mode"))
	if err != nil {
		return endpoint.Config{}, err
	}

	cfg := endpoint.Config{
		Mode:    mode,
		FeedURL: c.v.GetString("feed.url"),
		BaseURL: c.v.GetString("identity.base_url"),
		Auth:    c.v.GetString("endpoint.auth"),
		Identity: endpoint.Identity{
			UserKey:     c.v.GetString("identity.user_key"),
			DeviceKey:   c.v.GetString("identity.device_key"),
			DeviceModel: c.v.GetString("identity.device_model"),
			AppKey:      c.v.GetString("identity.app_key"),
		},
	}

	if u := c.v.GetString("endpoint.url"); u != "" {
		cfg.Static = &endpoint.Descriptor{
			URL:        u,
			AuthHeader: c.v.GetString("endpoint.auth"),
			TagsHeader: c.v.GetString("endpoint.tags"),
		}
	}
	return cfg, nil
}

// buildSink picks the version report or the file writer, then adds the
// history sink when a backend or publisher is configured. The returned
// func releases those backends.
func (c *fetchCommander) buildSink(ctx context.Context) (snapshot.Sink, func(), error) {
	var primary snapshot.Sink

	if c.versionOnly {
		primary = snapshot.NewVersionSink(c.out)
	} else {
		fs, err := snapshot.NewFileSink(snapshot.FileOptions{
			Dir:         c.v.GetString("output.dir"),
			Timestamped: c.v.GetBool("output.timestamped"),
			Canonical:   c.v.GetBool("output.canonical"),
			Filtered:    c.v.GetBool("output.filtered"),
			Logger:      c.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		primary = snapshot.SinkFunc(func(ctx context.Context, snap *snapshot.Snapshot) error {
			if err := fs.Deliver(ctx, snap); err != nil {
				return err
			}
			for _, path := range fs.Written() {
				fmt.Fprintf(c.out, "  %s %s\n", cliui.SuccessMark, path)
			}
			return nil
		})
	}

	driver, err := store.OpenDriver(ctx, c.v.GetString("storage.sqlite_path"), c.v.GetString("storage.postgres_dsn"), c.logger)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := store.OpenPublisher(
		config.SplitList(c.v.GetStringSlice("events.kafka_brokers")),
		c.v.GetString("events.kafka_topic"),
		c.logger,
	)
	if err != nil {
		if driver != nil {
			_ = driver.Close()
		}
		return nil, nil, err
	}

	closeAll := func() {
		var errs []error
		if publisher != nil {
			errs = append(errs, publisher.Close())
		}
		if driver != nil {
			errs = append(errs, driver.Close())
		}
		if err := errors.Join(errs...); err != nil {
			c.logger.Warn("closing backends", "error", err)
		}
	}

	if driver == nil && publisher == nil {
		return primary, closeAll, nil
	}

	return snapshot.Multi(primary, snapshot.NewHistorySink(driver, publisher)), closeAll, nil
}
