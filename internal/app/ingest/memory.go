package ingest

import (
	"context"
	"sync"

	"github.com/mohammed-shakir/osm-ingest/internal/extent"
)

type runKey struct{ dataset, runID string }

// MemoryStore keeps the latest summary per dataset, and every run's summary,
// in process.
type MemoryStore struct {
	mu   sync.RWMutex
	byDS map[string]extent.Summary
	runs map[runKey]extent.Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byDS: map[string]extent.Summary{},
		runs: map[runKey]extent.Summary{},
	}
}

func (m *MemoryStore) Save(_ context.Context, s extent.Summary) error {
	m.mu.Lock()
	m.byDS[s.Dataset] = s
	if s.RunID != "" {
		m.runs[runKey{s.Dataset, s.RunID}] = s
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, dataset string) (extent.Summary, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byDS[dataset]
	return s, ok, nil
}

func (m *MemoryStore) Run(_ context.Context, dataset, runID string) (extent.Summary, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.runs[runKey{dataset, runID}]
	return s, ok, nil
}

// Delete drops the latest summary only, like the Redis store.
func (m *MemoryStore) Delete(_ context.Context, dataset string) error {
	m.mu.Lock()
	delete(m.byDS, dataset)
	m.mu.Unlock()
	return nil
}
