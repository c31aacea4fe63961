package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Console formats accepted by NewCLI.
const (
	FormatAuto   = "auto"
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// CLIConfig describes the logger of one command invocation.
type CLIConfig struct {
	Debug bool

	// Format is one of the Format constants. Empty means FormatAuto, which
	// picks pretty output when Console is a terminal and text otherwise.
	Format string

	// File, when set, additionally receives JSON records. The file is
	// appended to and created if missing.
	File string

	// Console defaults to os.Stderr.
	Console io.Writer
}

// NewCLI builds the logger for a command. The returned func closes the log
// file and is safe to call when none was opened.
func NewCLI(c CLIConfig) (*slog.Logger, func() error, error) {
	console := c.Console
	if console == nil {
		console = os.Stderr
	}

	format := strings.ToLower(strings.TrimSpace(c.Format))
	if format == "" || format == FormatAuto {
		format = FormatText
		if IsTerminal(console) {
			format = FormatPretty
		}
	}

	var consoleOpts []Option
	switch format {
	case FormatText:
	case FormatJSON:
		consoleOpts = append(consoleOpts, WithJSON(true))
	case FormatPretty:
		consoleOpts = append(consoleOpts, WithPretty(true))
	default:
		return nil, nil, fmt.Errorf("invalid log format %q: must be one of %s, %s, %s, %s",
			c.Format, FormatAuto, FormatText, FormatJSON, FormatPretty)
	}

	noClose := func() error { return nil }

	if c.File == "" {
		l := New(append(consoleOpts, WithDebug(c.Debug), WithWriter(console))...)
		return l, noClose, nil
	}

	if dir := filepath.Dir(c.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	// Same encoding on both sides: one handler writing to both.
	if format == FormatJSON {
		l := New(WithJSON(true), WithDebug(c.Debug), WithSource(c.Debug), WithWriters(console, f))
		return l, f.Close, nil
	}

	l := Multi(
		New(append(consoleOpts, WithDebug(c.Debug), WithWriter(console))...),
		New(WithJSON(true), WithDebug(c.Debug), WithSource(c.Debug), WithWriter(f)),
	)
	return l, f.Close, nil
}
