package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/flagsnap/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*eventstream.SnapshotCapturedEvent

	// Fail causes PublishSnapshot to return an error.
	Fail bool

	Closed bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishSnapshot(_ context.Context, event *eventstream.SnapshotCapturedEvent) error {
	if event == nil {
		return eventstream.ErrNilSnapshotEvent
	}
	if m.Fail {
		return errors.New("mock publish failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.Closed = true
	return nil
}
