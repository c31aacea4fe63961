package testutils

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/flagsnap/pkg/storage"
)

// NewTestRecord creates a record for the given snapshot text captured at ts.
func NewTestRecord(snapshot string, ts time.Time) *storage.Record {
	sum := sha256.Sum256([]byte(snapshot))
	return &storage.Record{
		ID:           uuid.NewString(),
		RunID:        uuid.NewString(),
		CapturedAt:   ts.UTC(),
		EndpointHost: "stream.example.com",
		Digest:       hex.EncodeToString(sum[:]),
		FlagCount:    1,
		Snapshot:     []byte(snapshot),
	}
}
