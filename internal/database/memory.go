package database

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory KV and History.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	records []ScanRecord

	// failSet, when non-nil, is returned by every write.
	failSet error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// FailWrites makes every subsequent Set and SetMany return err. A nil err
// restores normal behavior.
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

// Get implements KV.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

// Set implements KV.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.values[key] = slices.Clone(value)
	return nil
}

// SetMany implements KV.
func (m *MemoryStore) SetMany(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	for key, value := range values {
		m.values[key] = slices.Clone(value)
	}
	return nil
}

// InsertScanRecord implements History.
func (m *MemoryStore) InsertScanRecord(_ context.Context, record *ScanRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := *record
	rec.ID = int64(len(m.records) + 1)
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.Sources = slices.Clone(record.Sources)
	m.records = append(m.records, rec)
	return rec.ID, nil
}

// ListScanRecords implements History.
func (m *MemoryStore) ListScanRecords(_ context.Context, limit int) ([]ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ScanRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.records[i])
	}
	return out, nil
}
