package index

import (
	"sort"
	"sync"

	"github.com/fusevec/fusevec/core"
)

// posting is one inverted-index entry: a record carrying a non-zero weight
// on some dimension.
type posting struct {
	id     uint64
	weight float32
}

// InvertedSparseIndex maps sparse dimension ids to postings of
// (record id, weight). Query scoring accumulates weight products over
// dimensions shared between query and record.
type InvertedSparseIndex struct {
	mu       sync.RWMutex
	postings map[uint32][]posting
	vectors  map[uint64]core.SparseVector // record id -> stored sparse vector
}

// NewInvertedSparseIndex creates a new empty sparse index
func NewInvertedSparseIndex() *InvertedSparseIndex {
	return &InvertedSparseIndex{
		postings: make(map[uint32][]posting),
		vectors:  make(map[uint64]core.SparseVector),
	}
}

// Insert adds a sparse vector, overwriting any entry with the same id.
// Zero-weight dimensions are dropped; a nil vector is a valid record that
// simply never matches sparse queries.
func (idx *InvertedSparseIndex) Insert(id uint64, vec core.SparseVector) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.vectors[id]; ok {
		idx.removeLocked(id)
	}

	stored := make(core.SparseVector, len(vec))
	for dim, weight := range vec {
		if weight == 0 {
			continue
		}
		stored[dim] = weight
		idx.postings[dim] = append(idx.postings[dim], posting{id: id, weight: weight})
	}

	idx.vectors[id] = stored
}

// removeLocked strips a record's postings; caller holds idx.mu
func (idx *InvertedSparseIndex) removeLocked(id uint64) {
	for dim := range idx.vectors[id] {
		list := idx.postings[dim]
		for i := range list {
			if list[i].id == id {
				idx.postings[dim] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(idx.postings[dim]) == 0 {
			delete(idx.postings, dim)
		}
	}
	delete(idx.vectors, id)
}

// Search accumulates weight products for every record sharing at least one
// dimension with the query and returns the top limit by descending score.
// Zero-overlap records are excluded, not scored as zero. Equal scores order
// by ascending record id.
func (idx *InvertedSparseIndex) Search(query core.SparseVector, limit int) []core.SearchResult {
	if len(query) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scores := make(map[uint64]float64)
	for dim, queryWeight := range query {
		if queryWeight == 0 {
			continue
		}
		for _, p := range idx.postings[dim] {
			scores[p.id] += float64(queryWeight) * float64(p.weight)
		}
	}

	if len(scores) == 0 {
		return nil
	}

	results := make([]core.SearchResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, core.SearchResult{ID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if limit < len(results) {
		results = results[:limit]
	}

	return results
}

// Size returns the number of records in the index
func (idx *InvertedSparseIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}
