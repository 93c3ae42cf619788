package index

import (
	"errors"
	"math"
	"testing"

	"github.com/fusevec/fusevec/core"
)

func TestFlatDenseIndexInsertAndSearch(t *testing.T) {
	idx := NewFlatDenseIndex(3, core.DistanceCosine)

	vectors := map[uint64][]float32{
		1: {1, 0, 0},
		2: {0, 1, 0},
		3: {0.9, 0.1, 0},
	}
	for id, vec := range vectors {
		if err := idx.Insert(id, vec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if idx.Size() != 3 {
		t.Errorf("Expected size 3, got %d", idx.Size())
	}

	results, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != 1 {
		t.Errorf("Expected id 1 first, got %d", results[0].ID)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-6 {
		t.Errorf("Expected score ~1.0, got %f", results[0].Score)
	}
	if results[1].ID != 3 {
		t.Errorf("Expected id 3 second, got %d", results[1].ID)
	}
}

func TestFlatDenseIndexDotProduct(t *testing.T) {
	idx := NewFlatDenseIndex(2, core.DistanceDot)

	idx.Insert(1, []float32{1, 1})
	idx.Insert(2, []float32{3, 3})
	idx.Insert(3, []float32{2, 2})

	results, err := idx.Search([]float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	// Dot product ranks by magnitude, unlike cosine
	want := []uint64{2, 3, 1}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("Position %d: expected id %d, got %d", i, id, results[i].ID)
		}
	}
}

func TestFlatDenseIndexDimensionMismatch(t *testing.T) {
	idx := NewFlatDenseIndex(3, core.DistanceCosine)

	if err := idx.Insert(1, []float32{1, 2}); !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch on insert, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("Expected rejected vector to be absent, size %d", idx.Size())
	}

	idx.Insert(1, []float32{1, 2, 3})
	if _, err := idx.Search([]float32{1, 2}, 5); !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch on search, got %v", err)
	}
}

func TestFlatDenseIndexEmpty(t *testing.T) {
	idx := NewFlatDenseIndex(2, core.DistanceCosine)

	results, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results != nil {
		t.Errorf("Expected nil for empty index, got %v", results)
	}
}

func TestFlatDenseIndexUpsert(t *testing.T) {
	idx := NewFlatDenseIndex(2, core.DistanceCosine)

	idx.Insert(1, []float32{1, 0})
	idx.Insert(1, []float32{0, 1})

	if idx.Size() != 1 {
		t.Fatalf("Expected size 1 after upsert, got %d", idx.Size())
	}

	results, err := idx.Search([]float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-6 {
		t.Errorf("Expected upserted vector to match, score %f", results[0].Score)
	}
}

func TestFlatDenseIndexStableTies(t *testing.T) {
	idx := NewFlatDenseIndex(2, core.DistanceCosine)

	// Identical vectors tie exactly under cosine. Ties keep insertion
	// order, regardless of id values.
	ids := []uint64{9, 3, 7, 1}
	for _, id := range ids {
		idx.Insert(id, []float32{1, 1})
	}

	for run := 0; run < 10; run++ {
		results, err := idx.Search([]float32{1, 1}, 4)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		for i, id := range ids {
			if results[i].ID != id {
				t.Fatalf("Run %d position %d: expected id %d, got %d", run, i, id, results[i].ID)
			}
		}
	}
}

func TestFlatDenseIndexInsertCopiesVector(t *testing.T) {
	idx := NewFlatDenseIndex(2, core.DistanceCosine)

	vec := []float32{1, 0}
	idx.Insert(1, vec)
	vec[0] = 0
	vec[1] = 1

	results, err := idx.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-6 {
		t.Errorf("Caller mutation leaked into index, score %f", results[0].Score)
	}
}
