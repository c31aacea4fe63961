// Package storage defines the snapshot history store.
package storage

import (
	"context"
	"time"
)

// Record is one captured snapshot.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// RunID is the id of the run that captured the snapshot.
	RunID string

	CapturedAt time.Time

	// EndpointHost is the host the snapshot was streamed from. The full URL
	// embeds identity keys and is never stored.
	EndpointHost string

	// Digest is the hex sha256 of the canonical snapshot.
	Digest string

	FlagCount int

	// Snapshot is the canonical (key-sorted) JSON document.
	Snapshot []byte
}

// Driver defines the interface for persisting and retrieving snapshot
// records in a storage backend.
type Driver interface {
	// Put stores a record. Returns true if the record was newly inserted,
	// false if a record with the same ID already exists, in which case Put
	// is a no-op.
	Put(ctx context.Context, rec *Record) (bool, error)

	// Get retrieves a record by its ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first. A non-positive limit
	// returns every record.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Latest returns the newest record.
	Latest(ctx context.Context) (*Record, error)

	// Close closes the store and releases any resources.
	Close() error
}
