package eventstream

import "context"

// Publisher publishes snapshot events to an event stream backend.
type Publisher interface {
	PublishSnapshot(ctx context.Context, event *SnapshotCapturedEvent) error
	Close() error
}
