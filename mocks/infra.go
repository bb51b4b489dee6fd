package mocks

import (
	"context"
	"sync"

	"fixmyarea-be/models"
)

// MockTxRunner runs fn directly and counts how often it was asked to.
type MockTxRunner struct {
	mu    sync.Mutex
	Calls int
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(ctx)
}

// MockCountsCache is an in-memory repository.CountsCache.
type MockCountsCache struct {
	mu          sync.Mutex
	value       *models.StatusCounts
	Invalidated int

	GetFunc func(ctx context.Context) (*models.StatusCounts, error)
}

func NewMockCountsCache() *MockCountsCache {
	return &MockCountsCache{}
}

func (m *MockCountsCache) Get(ctx context.Context) (*models.StatusCounts, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil {
		return nil, nil
	}
	v := *m.value
	return &v, nil
}

func (m *MockCountsCache) Set(ctx context.Context, counts models.StatusCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = &counts
	return nil
}

func (m *MockCountsCache) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	m.Invalidated++
	return nil
}

// RecordedEvent is one event captured by MockPublisher.
type RecordedEvent struct {
	Type    string
	Payload interface{}
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

func (m *MockPublisher) Publish(eventType string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, RecordedEvent{Type: eventType, Payload: payload})
}

// Types returns the recorded event types in order.
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}

// MockNotifier records resolution notices.
type MockNotifier struct {
	mu       sync.Mutex
	Resolved []*models.Complaint

	ComplaintResolvedFunc func(ctx context.Context, citizen *models.User, complaint *models.Complaint, note string) error
}

func (m *MockNotifier) ComplaintResolved(ctx context.Context, citizen *models.User, complaint *models.Complaint, note string) error {
	if m.ComplaintResolvedFunc != nil {
		return m.ComplaintResolvedFunc(ctx, citizen, complaint, note)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Resolved = append(m.Resolved, complaint)
	return nil
}
