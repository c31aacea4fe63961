// Package store opens the snapshot history backend and event publisher
// selected by command flags and configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/flagsnap/pkg/eventstream"
	"github.com/papercomputeco/flagsnap/pkg/eventstream/kafka"
	"github.com/papercomputeco/flagsnap/pkg/storage"
	"github.com/papercomputeco/flagsnap/pkg/storage/postgres"
	"github.com/papercomputeco/flagsnap/pkg/storage/sqlite"
)

// ErrNoHistory is returned by ResolveSQLitePath when no database is found.
var ErrNoHistory = errors.New("could not find a flagsnap history database; pass --sqlite or --postgres")

// ResolveSQLitePath returns override when set, otherwise the first
// existing well-known history database.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNoHistory
}

func sqliteCandidates() []string {
	candidates := []string{
		"flagsnap.db",
		filepath.Join(".flagsnap", "history.db"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".flagsnap", "history.db"))
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "flagsnap", "history.db"))
	}

	return candidates
}

// OpenDriver opens the history backend. Postgres wins when both are set.
// It returns a nil driver when neither is set.
func OpenDriver(ctx context.Context, sqlitePath, postgresDSN string, log *slog.Logger) (storage.Driver, error) {
	switch {
	case postgresDSN != "":
		d, err := postgres.NewDriver(ctx, postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres history: %w", err)
		}
		log.Info("using postgres history")
		return d, nil

	case sqlitePath != "":
		if dir := filepath.Dir(sqlitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating history directory: %w", err)
			}
		}
		d, err := sqlite.NewDriver(ctx, sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite history: %w", err)
		}
		log.Info("using sqlite history", "path", sqlitePath)
		return d, nil

	default:
		return nil, nil
	}
}

// OpenPublisher returns a kafka publisher when brokers are given and nil
// otherwise.
func OpenPublisher(brokers []string, topic string, log *slog.Logger) (eventstream.Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   topic,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	log.Info("publishing snapshot events", "topic", topic, "brokers", strings.Join(brokers, ","))
	return p, nil
}
