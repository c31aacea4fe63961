// Package historycmder provides the history command for browsing captured
// snapshots.
package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/flagsnap/cmd/flagsnap/clilog"
	"github.com/papercomputeco/flagsnap/cmd/flagsnap/store"
	"github.com/papercomputeco/flagsnap/pkg/cliui"
	"github.com/papercomputeco/flagsnap/pkg/config"
	"github.com/papercomputeco/flagsnap/pkg/storage"
)

type historyCommander struct {
	sqlite   string
	postgres string
	limit    int
	jsonOut  bool

	v        *viper.Viper
	out      io.Writer
	logger   *slog.Logger
	closeLog func() error
}

var registeredFlags = []string{
	config.FlagSQLite,
	config.FlagPostgres,
}

const historyLongDesc string = `List captured snapshots, newest first.

Reads the history database written by "flagsnap fetch". Without --sqlite or
--postgres the configured backend is used, then the first existing
flagsnap.db, .flagsnap/history.db or ~/.flagsnap/history.db.

Use "flagsnap history show <id>" to print one snapshot, or
"flagsnap history show latest" for the newest.

Examples:
  flagsnap history
  flagsnap history --limit 5 --json
  flagsnap history show latest`

const historyShortDesc string = "List captured snapshots"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.withDriver(cmd.Context(), cmder.list)
		},
	}

	show := &cobra.Command{
		Use:   "show <id|latest>",
		Short: "Print one captured snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.withDriver(cmd.Context(), func(ctx context.Context, d storage.Driver) error {
				return cmder.show(ctx, d, args[0])
			})
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagSQLite, &cmder.sqlite)
	config.AddStringFlag(cmd, config.Registry, config.FlagPostgres, &cmder.postgres)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of records to list (0 for all)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print records as JSON")

	// show accepts the same backend flags
	show.Flags().AddFlag(cmd.Flags().Lookup("sqlite"))
	show.Flags().AddFlag(cmd.Flags().Lookup("postgres"))

	cmd.AddCommand(show)

	return cmd
}

func (c *historyCommander) setup(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Registry, registeredFlags)
	c.v = v

	log, closeLog, err := clilog.New(cmd)
	if err != nil {
		return err
	}
	c.out = cmd.OutOrStdout()
	c.logger = log
	c.closeLog = closeLog
	return nil
}

func (c *historyCommander) withDriver(ctx context.Context, fn func(context.Context, storage.Driver) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	postgresDSN := c.v.GetString("storage.postgres_dsn")
	sqlitePath := ""
	if postgresDSN == "" {
		var err error
		sqlitePath, err = store.ResolveSQLitePath(c.v.GetString("storage.sqlite_path"))
		if err != nil {
			return err
		}
	}

	if c.closeLog != nil {
		defer c.closeLog()
	}

	d, err := store.OpenDriver(ctx, sqlitePath, postgresDSN, c.logger)
	if err != nil {
		return err
	}
	defer d.Close()

	return fn(ctx, d)
}

type recordSummary struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	CapturedAt   time.Time `json:"captured_at"`
	EndpointHost string    `json:"endpoint_host"`
	Digest       string    `json:"digest"`
	FlagCount    int       `json:"flag_count"`
}

func (c *historyCommander) list(ctx context.Context, d storage.Driver) error {
	records, err := d.List(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if c.jsonOut {
		summaries := make([]recordSummary, 0, len(records))
		for _, r := range records {
			summaries = append(summaries, recordSummary{
				ID:           r.ID,
				RunID:        r.RunID,
				CapturedAt:   r.CapturedAt.UTC(),
				EndpointHost: r.EndpointHost,
				Digest:       r.Digest,
				FlagCount:    r.FlagCount,
			})
		}
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(records) == 0 {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("No snapshots recorded yet."))
		return nil
	}

	fmt.Fprintln(c.out)
	for i, r := range records {
		changed := ""
		if i+1 < len(records) && records[i+1].Digest != r.Digest {
			changed = cliui.KeyStyle.Render(" changed")
		}
		fmt.Fprintf(c.out, "  %s  %s  %s  %s%s\n",
			cliui.ValueStyle.Render(r.CapturedAt.Local().Format(time.DateTime)),
			cliui.DimStyle.Render(r.ID),
			cliui.StepStyle.Render(fmt.Sprintf("%4d flags", r.FlagCount)),
			cliui.DimStyle.Render(shortDigest(r.Digest)),
			changed,
		)
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *historyCommander) show(ctx context.Context, d storage.Driver, id string) error {
	var (
		rec *storage.Record
		err error
	)
	if strings.EqualFold(id, "latest") {
		rec, err = d.Latest(ctx)
	} else {
		rec, err = d.Get(ctx, id)
	}
	if err != nil {
		return err
	}

	_, err = c.out.Write(rec.Snapshot)
	return err
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
