// Package eventstream publishes capture events so downstream systems can
// react to a new flag snapshot without polling the history store.
package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSnapshotCaptured is emitted after a snapshot has been delivered.
	EventTypeSnapshotCaptured = "flagsnap.snapshot.captured"
)

// SnapshotCapturedEvent is a transport-neutral event payload for a captured
// snapshot. The snapshot body itself is not included; consumers fetch it
// from the history store by digest or record id.
type SnapshotCapturedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	RunID         string    `json:"run_id"`
	RecordID      string    `json:"record_id,omitempty"`
	EndpointHost  string    `json:"endpoint_host"`
	Digest        string    `json:"digest"`
	FlagCount     int       `json:"flag_count"`
	CapturedAt    time.Time `json:"captured_at"`
}
