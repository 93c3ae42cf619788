package index

import (
	"math"
	"testing"

	"github.com/fusevec/fusevec/core"
)

func TestInvertedSparseIndexSearch(t *testing.T) {
	idx := NewInvertedSparseIndex()

	idx.Insert(1, core.SparseVector{1: 1.0, 2: 2.0})
	idx.Insert(2, core.SparseVector{2: 3.0})
	idx.Insert(3, core.SparseVector{7: 5.0})

	if idx.Size() != 3 {
		t.Errorf("Expected size 3, got %d", idx.Size())
	}

	results := idx.Search(core.SparseVector{2: 1.0}, 10)

	// Record 3 shares no dimensions with the query and must not appear
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != 2 || results[1].ID != 1 {
		t.Errorf("Expected order [2, 1], got [%d, %d]", results[0].ID, results[1].ID)
	}
	if math.Abs(float64(results[0].Score)-3.0) > 1e-6 {
		t.Errorf("Expected score 3.0, got %f", results[0].Score)
	}
	if math.Abs(float64(results[1].Score)-2.0) > 1e-6 {
		t.Errorf("Expected score 2.0, got %f", results[1].Score)
	}
}

func TestInvertedSparseIndexLimit(t *testing.T) {
	idx := NewInvertedSparseIndex()

	for id := uint64(1); id <= 10; id++ {
		idx.Insert(id, core.SparseVector{5: float32(id)})
	}

	results := idx.Search(core.SparseVector{5: 1.0}, 3)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	want := []uint64{10, 9, 8}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("Position %d: expected id %d, got %d", i, id, results[i].ID)
		}
	}
}

func TestInvertedSparseIndexEmptyQuery(t *testing.T) {
	idx := NewInvertedSparseIndex()
	idx.Insert(1, core.SparseVector{1: 1.0})

	if results := idx.Search(nil, 5); results != nil {
		t.Errorf("Expected nil for empty query, got %v", results)
	}
	if results := idx.Search(core.SparseVector{}, 5); results != nil {
		t.Errorf("Expected nil for empty query, got %v", results)
	}

	// Query over dimensions nothing posts to
	if results := idx.Search(core.SparseVector{99: 1.0}, 5); results != nil {
		t.Errorf("Expected nil for zero-overlap query, got %v", results)
	}
}

func TestInvertedSparseIndexUpsert(t *testing.T) {
	idx := NewInvertedSparseIndex()

	idx.Insert(1, core.SparseVector{1: 1.0, 2: 2.0})
	idx.Insert(1, core.SparseVector{3: 4.0})

	if idx.Size() != 1 {
		t.Fatalf("Expected size 1 after upsert, got %d", idx.Size())
	}

	// Old postings must be gone
	if results := idx.Search(core.SparseVector{1: 1.0, 2: 1.0}, 5); results != nil {
		t.Errorf("Expected stale postings removed, got %v", results)
	}

	results := idx.Search(core.SparseVector{3: 1.0}, 5)
	if len(results) != 1 || math.Abs(float64(results[0].Score)-4.0) > 1e-6 {
		t.Errorf("Expected replaced vector to match, got %v", results)
	}
}

func TestInvertedSparseIndexDropsZeroWeights(t *testing.T) {
	idx := NewInvertedSparseIndex()

	idx.Insert(1, core.SparseVector{1: 0, 2: 1.0})

	if results := idx.Search(core.SparseVector{1: 1.0}, 5); results != nil {
		t.Errorf("Expected zero-weight dimension unindexed, got %v", results)
	}
	if results := idx.Search(core.SparseVector{2: 1.0}, 5); len(results) != 1 {
		t.Errorf("Expected nonzero dimension indexed, got %v", results)
	}
}

func TestInvertedSparseIndexTieBreak(t *testing.T) {
	idx := NewInvertedSparseIndex()

	// Identical vectors produce identical scores; order falls back to
	// ascending id.
	idx.Insert(9, core.SparseVector{1: 1.0})
	idx.Insert(2, core.SparseVector{1: 1.0})
	idx.Insert(5, core.SparseVector{1: 1.0})

	for run := 0; run < 10; run++ {
		results := idx.Search(core.SparseVector{1: 1.0}, 5)
		want := []uint64{2, 5, 9}
		for i, id := range want {
			if results[i].ID != id {
				t.Fatalf("Run %d position %d: expected id %d, got %d", run, i, id, results[i].ID)
			}
		}
	}
}
