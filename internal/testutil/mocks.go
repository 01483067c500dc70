package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
	"github.com/hugo-lorenzo-mato/shockcast/internal/events"
)

// MockCall records a call to the mock.
type MockCall struct {
	Method    string
	Args      interface{}
	Timestamp time.Time
}

// MockHistoryStore implements core.HistoryStore in memory.
type MockHistoryStore struct {
	records   []core.AnalysisRecord
	recordErr error
	countErr  error
	closed    bool
	calls     []MockCall
	mu        sync.Mutex
}

// NewMockHistoryStore creates an empty mock history store.
func NewMockHistoryStore() *MockHistoryStore {
	return &MockHistoryStore{calls: make([]MockCall, 0)}
}

// Record stores rec unless a record error is configured.
func (m *MockHistoryStore) Record(_ context.Context, rec core.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: "Record", Args: rec, Timestamp: time.Now()})
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, rec)
	return nil
}

// CountSimilar counts stored records of category created at or after since.
func (m *MockHistoryStore) CountSimilar(_ context.Context, category core.Category, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: "CountSimilar", Args: category, Timestamp: time.Now()})
	if m.countErr != nil {
		return 0, m.countErr
	}
	n := 0
	for _, r := range m.records {
		if r.Category == category && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Recent returns up to limit records, newest first.
func (m *MockHistoryStore) Recent(_ context.Context, limit int) ([]core.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.AnalysisRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Close marks the store closed.
func (m *MockHistoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Records returns a copy of the stored records.
func (m *MockHistoryStore) Records() []core.AnalysisRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.AnalysisRecord{}, m.records...)
}

// CallCount returns the number of calls to a method.
func (m *MockHistoryStore) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Closed reports whether Close was called.
func (m *MockHistoryStore) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WithRecordError makes Record fail.
func (m *MockHistoryStore) WithRecordError(err error) *MockHistoryStore {
	m.recordErr = err
	return m
}

// WithCountError makes CountSimilar fail.
func (m *MockHistoryStore) WithCountError(err error) *MockHistoryStore {
	m.countErr = err
	return m
}

// Seed adds records directly.
func (m *MockHistoryStore) Seed(recs ...core.AnalysisRecord) *MockHistoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, recs...)
	return m
}

// RecordingPublisher implements events.Publisher and keeps every event.
type RecordingPublisher struct {
	events   []events.Event
	priority []events.Event
	mu       sync.Mutex
}

// NewRecordingPublisher creates an empty recording publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records a normal event.
func (p *RecordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// PublishPriority records a priority event. Priority events also appear in Events.
func (p *RecordingPublisher) PublishPriority(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	p.priority = append(p.priority, e)
}

// Events returns every event in publish order.
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event{}, p.events...)
}

// Priority returns the priority events in publish order.
func (p *RecordingPublisher) Priority() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event{}, p.priority...)
}

// OfType returns the events with the given type.
func (p *RecordingPublisher) OfType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
