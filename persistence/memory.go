package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fusevec/fusevec/core"
)

// MemoryPersistence implements in-memory storage (non-persistent)
type MemoryPersistence struct {
	mu          sync.RWMutex
	records     map[string]map[uint64]core.Record // collection -> id -> record
	collections map[string]core.Collection        // collection name -> collection
	counters    map[string]uint64                 // collection name -> last allocated id
}

// NewMemoryPersistence creates a new in-memory persistence layer
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		records:     make(map[string]map[uint64]core.Record),
		collections: make(map[string]core.Collection),
		counters:    make(map[string]uint64),
	}
}

// SaveRecord stores a record in memory
func (m *MemoryPersistence) SaveRecord(ctx context.Context, collection string, rec core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[collection] == nil {
		m.records[collection] = make(map[uint64]core.Record)
	}

	m.records[collection][rec.ID] = rec
	return nil
}

// SaveRecordsBatch stores multiple records
func (m *MemoryPersistence) SaveRecordsBatch(ctx context.Context, collection string, recs []core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[collection] == nil {
		m.records[collection] = make(map[uint64]core.Record)
	}

	for _, rec := range recs {
		m.records[collection][rec.ID] = rec
	}

	return nil
}

// LoadRecord retrieves a record by id from memory
func (m *MemoryPersistence) LoadRecord(ctx context.Context, collection string, id uint64) (core.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[collection][id]
	if !exists {
		return core.Record{}, fmt.Errorf("%w: record %d in collection %s", core.ErrRecordNotFound, id, collection)
	}

	return rec, nil
}

// LoadRecords retrieves all records from a collection, ordered by id
func (m *MemoryPersistence) LoadRecords(ctx context.Context, collection string) ([]core.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	collectionRecords := m.records[collection]

	records := make([]core.Record, 0, len(collectionRecords))
	for _, rec := range collectionRecords {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	return records, nil
}

// CountRecords returns the number of records in a collection
func (m *MemoryPersistence) CountRecords(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records[collection]), nil
}

// SaveCollection stores collection metadata
func (m *MemoryPersistence) SaveCollection(ctx context.Context, collection core.Collection) error {
	if err := core.ValidateCollection(collection); err != nil {
		return fmt.Errorf("invalid collection: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[collection.Name] = collection
	return nil
}

// LoadCollection retrieves collection metadata
func (m *MemoryPersistence) LoadCollection(ctx context.Context, name string) (core.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	collection, exists := m.collections[name]
	if !exists {
		return core.Collection{}, fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
	}

	return collection, nil
}

// LoadCollections retrieves all collection metadata
func (m *MemoryPersistence) LoadCollections(ctx context.Context) ([]core.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	collections := make([]core.Collection, 0, len(m.collections))
	for _, collection := range m.collections {
		collections = append(collections, collection)
	}

	return collections, nil
}

// DeleteCollection removes a collection, its records, and its id counter
func (m *MemoryPersistence) DeleteCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[name]; !exists {
		return fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
	}

	delete(m.collections, name)
	delete(m.records, name)
	delete(m.counters, name)
	return nil
}

// AllocateIDs reserves count sequential ids and returns the first
func (m *MemoryPersistence) AllocateIDs(ctx context.Context, collection string, count int) (uint64, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: id count must be positive, got %d", core.ErrValidation, count)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	first := m.counters[collection] + 1
	m.counters[collection] += uint64(count)
	return first, nil
}

// ObserveID raises the allocator past a caller-supplied id
func (m *MemoryPersistence) ObserveID(ctx context.Context, collection string, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id > m.counters[collection] {
		m.counters[collection] = id
	}
	return nil
}

// Close is a no-op for memory persistence
func (m *MemoryPersistence) Close() error {
	return nil
}
