package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Sink consumes a delivered snapshot.
type Sink interface {
	Deliver(ctx context.Context, snap *Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, snap *Snapshot) error

func (f SinkFunc) Deliver(ctx context.Context, snap *Snapshot) error {
	return f(ctx, snap)
}

// multiSink delivers to every sink and joins their errors.
type multiSink []Sink

// Multi returns a Sink that delivers to each sink in order. Every sink is
// attempted even if an earlier one fails.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Deliver(ctx context.Context, snap *Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// VersionSink writes the first flag's version, followed by a newline.
type VersionSink struct {
	w io.Writer
}

// NewVersionSink creates a VersionSink writing to w.
func NewVersionSink(w io.Writer) *VersionSink {
	return &VersionSink{w: w}
}

func (s *VersionSink) Deliver(_ context.Context, snap *Snapshot) error {
	v, err := FirstVersion(snap.Raw)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(s.w, v); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}
	return nil
}
