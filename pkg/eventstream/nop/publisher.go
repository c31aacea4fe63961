// Package nop provides a publisher that drops every event.
package nop

import (
	"context"

	"github.com/papercomputeco/flagsnap/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSnapshot validates input and otherwise does nothing.
func (p *Publisher) PublishSnapshot(_ context.Context, event *eventstream.SnapshotCapturedEvent) error {
	if event == nil {
		return eventstream.ErrNilSnapshotEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
