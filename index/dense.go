package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fusevec/fusevec/core"
)

// denseEntry pairs a record id with its vector. Entries keep insertion
// order so equal-score results rank deterministically.
type denseEntry struct {
	id     uint64
	vector []float32
}

// FlatDenseIndex implements brute-force exact similarity search
type FlatDenseIndex struct {
	mu        sync.RWMutex
	entries   []denseEntry
	positions map[uint64]int // record id -> position in entries
	dimension int
	metric    core.DistanceMetric
}

// NewFlatDenseIndex creates a new flat dense index
func NewFlatDenseIndex(dimension int, metric core.DistanceMetric) *FlatDenseIndex {
	return &FlatDenseIndex{
		positions: make(map[uint64]int),
		dimension: dimension,
		metric:    metric,
	}
}

// Insert adds a vector to the index, overwriting any entry with the same id
func (f *FlatDenseIndex) Insert(id uint64, vector []float32) error {
	if err := core.ValidateDimension(vector, f.dimension); err != nil {
		return err
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)

	f.mu.Lock()
	defer f.mu.Unlock()

	if pos, ok := f.positions[id]; ok {
		// Overwrite in place; the entry keeps its original rank position
		f.entries[pos].vector = stored
		return nil
	}

	f.positions[id] = len(f.entries)
	f.entries = append(f.entries, denseEntry{id: id, vector: stored})
	return nil
}

// Search performs brute-force search for the top limit most similar vectors.
// Results order by descending similarity under the index metric; ties keep
// insertion order. An empty index returns an empty result.
func (f *FlatDenseIndex) Search(query []float32, limit int) ([]core.SearchResult, error) {
	if len(query) != f.dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			core.ErrDimensionMismatch, len(query), f.dimension)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 {
		return nil, nil
	}

	results := make([]core.SearchResult, 0, len(f.entries))
	for _, entry := range f.entries {
		score, err := core.Similarity(query, entry.vector, f.metric)
		if err != nil {
			return nil, fmt.Errorf("similarity calculation failed: %w", err)
		}
		results = append(results, core.SearchResult{ID: entry.id, Score: float64(score)})
	}

	// Stable sort preserves insertion order between equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit < len(results) {
		results = results[:limit]
	}

	return results, nil
}

// Size returns the number of vectors in the index
func (f *FlatDenseIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
