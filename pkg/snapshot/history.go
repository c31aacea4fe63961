package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/flagsnap/pkg/eventstream"
	"github.com/papercomputeco/flagsnap/pkg/eventstream/nop"
	"github.com/papercomputeco/flagsnap/pkg/storage"
)

// HistorySink stores each snapshot as a storage.Record and, when a
// publisher is configured, announces it on the event stream.
type HistorySink struct {
	driver    storage.Driver
	publisher eventstream.Publisher
	now       func() time.Time
}

// NewHistorySink creates a HistorySink. driver and publisher may be nil; a
// nil publisher drops events.
func NewHistorySink(driver storage.Driver, publisher eventstream.Publisher) *HistorySink {
	if publisher == nil {
		publisher = nop.NewPublisher()
	}
	return &HistorySink{
		driver:    driver,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *HistorySink) Deliver(ctx context.Context, snap *Snapshot) error {
	rec := &storage.Record{
		ID:           uuid.NewString(),
		RunID:        snap.RunID,
		CapturedAt:   snap.CapturedAt,
		EndpointHost: snap.EndpointHost,
		Digest:       snap.Digest,
		FlagCount:    snap.FlagCount,
		Snapshot:     snap.Canonical,
	}
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = s.now()
	}

	if s.driver != nil {
		if _, err := s.driver.Put(ctx, rec); err != nil {
			return fmt.Errorf("storing snapshot: %w", err)
		}
	} else {
		rec.ID = ""
	}

	event := &eventstream.SnapshotCapturedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSnapshotCaptured,
		EventID:       uuid.NewString(),
		EmittedAt:     s.now().UTC(),
		RunID:         snap.RunID,
		RecordID:      rec.ID,
		EndpointHost:  snap.EndpointHost,
		Digest:        snap.Digest,
		FlagCount:     snap.FlagCount,
		CapturedAt:    rec.CapturedAt,
	}
	if err := s.publisher.PublishSnapshot(ctx, event); err != nil {
		return fmt.Errorf("publishing snapshot event: %w", err)
	}
	return nil
}
