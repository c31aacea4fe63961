// Package inmemory provides a map-backed storage driver, used for tests and
// for runs without a configured database.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/papercomputeco/flagsnap/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is keyed by record ID
	records map[string]*storage.Record
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a record. Returns false if the ID is already present.
func (s *Driver) Put(_ context.Context, rec *storage.Record) (bool, error) {
	if rec == nil {
		return false, errors.New("cannot store nil record")
	}
	if rec.ID == "" {
		return false, errors.New("cannot store record without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return false, nil
	}

	s.records[rec.ID] = rec
	return true, nil
}

// Get retrieves a record by its ID.
func (s *Driver) Get(_ context.Context, id string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}
	return rec, nil
}

// List returns records newest first.
func (s *Driver) List(_ context.Context, limit int) ([]*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*storage.Record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CapturedAt.Equal(recs[j].CapturedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].CapturedAt.After(recs[j].CapturedAt)
	})

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Latest returns the newest record.
func (s *Driver) Latest(ctx context.Context) (*storage.Record, error) {
	recs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, storage.NotFoundError{}
	}
	return recs[0], nil
}

// Close is a no-op.
func (s *Driver) Close() error {
	return nil
}
