package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/papercomputeco/flagsnap/pkg/logger"
)

const (
	// CanonicalName is the fixed file name of the latest canonical snapshot.
	CanonicalName = "flags.json"

	// FilteredName is the fixed file name of the version-stripped snapshot.
	FilteredName = "flags.filtered.json"

	timestampLayout = "20060102T150405Z"
)

// TimestampedName returns the file name of a snapshot captured at t.
func TimestampedName(t time.Time) string {
	return "flags-" + t.UTC().Format(timestampLayout) + ".json"
}

// FileOptions selects which files a FileSink writes.
type FileOptions struct {
	Dir         string
	Timestamped bool
	Canonical   bool
	Filtered    bool
	Logger      *slog.Logger
}

// FileSink writes canonical copies of a snapshot under Dir.
type FileSink struct {
	opts    FileOptions
	logger  *slog.Logger
	written []string
}

// NewFileSink validates opts and returns a FileSink. At least one of the
// output kinds must be selected.
func NewFileSink(opts FileOptions) (*FileSink, error) {
	if opts.Dir == "" {
		return nil, errors.New("file sink requires an output directory")
	}
	if !opts.Timestamped && !opts.Canonical && !opts.Filtered {
		return nil, errors.New("file sink has no outputs selected")
	}

	l := opts.Logger
	if l == nil {
		l = logger.Nop()
	}
	return &FileSink{opts: opts, logger: l}, nil
}

// Written returns the paths written by the last Deliver.
func (s *FileSink) Written() []string {
	return s.written
}

func (s *FileSink) Deliver(_ context.Context, snap *Snapshot) error {
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", s.opts.Dir, err)
	}

	s.written = s.written[:0]

	if s.opts.Timestamped {
		captured := snap.CapturedAt
		if captured.IsZero() {
			captured = time.Now()
		}
		if err := s.write(TimestampedName(captured), snap.Canonical); err != nil {
			return err
		}
	}

	if s.opts.Canonical {
		if err := s.write(CanonicalName, snap.Canonical); err != nil {
			return err
		}
	}

	if s.opts.Filtered {
		filtered, err := StripVersions(snap.Raw)
		if err != nil {
			return err
		}
		if err := s.write(FilteredName, filtered); err != nil {
			return err
		}
	}

	return nil
}

// write replaces name atomically so readers never see a partial file.
func (s *FileSink) write(name string, data []byte) error {
	path := filepath.Join(s.opts.Dir, name)

	tmp, err := os.CreateTemp(s.opts.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	s.written = append(s.written, path)
	s.logger.Debug("wrote snapshot file", "path", path, "bytes", len(data))
	return nil
}
