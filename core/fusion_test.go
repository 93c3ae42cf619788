package core

import (
	"math"
	"testing"
)

func TestReciprocalRankFusion(t *testing.T) {
	// Dense ranking: A, B, C. Sparse ranking: B, D, A.
	const (
		a uint64 = 1
		b uint64 = 2
		c uint64 = 3
		d uint64 = 4
	)

	dense := []SearchResult{{ID: a}, {ID: b}, {ID: c}}
	sparse := []SearchResult{{ID: b}, {ID: d}, {ID: a}}

	fused := NewReciprocalRankFusion().Fuse(dense, sparse)

	if len(fused) != 4 {
		t.Fatalf("Expected 4 fused results, got %d", len(fused))
	}

	// With k=60 and 1-based ranks:
	// RRF(A) = 1/61 + 1/63, RRF(B) = 1/62 + 1/61,
	// RRF(C) = 1/63,        RRF(D) = 1/62
	expected := []struct {
		id    uint64
		score float64
	}{
		{b, 1.0/62 + 1.0/61},
		{a, 1.0/61 + 1.0/63},
		{d, 1.0 / 62},
		{c, 1.0 / 63},
	}

	for i, want := range expected {
		if fused[i].ID != want.id {
			t.Errorf("Position %d: expected id %d, got %d", i, want.id, fused[i].ID)
		}
		if math.Abs(fused[i].Score-want.score) > 1e-12 {
			t.Errorf("Position %d: expected score %f, got %f", i, want.score, fused[i].Score)
		}
	}
}

func TestReciprocalRankFusionDeterministicTies(t *testing.T) {
	// Symmetric placements produce equal scores; ties order by ascending id
	listA := []SearchResult{{ID: 5}, {ID: 2}}
	listB := []SearchResult{{ID: 2}, {ID: 5}}

	for i := 0; i < 10; i++ {
		fused := NewReciprocalRankFusion().Fuse(listA, listB)
		if len(fused) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(fused))
		}
		if fused[0].ID != 2 || fused[1].ID != 5 {
			t.Fatalf("Expected tie order [2 5], got [%d %d]", fused[0].ID, fused[1].ID)
		}
	}
}

func TestReciprocalRankFusionEmptyLists(t *testing.T) {
	fused := NewReciprocalRankFusion().Fuse(nil, nil)
	if len(fused) != 0 {
		t.Errorf("Expected empty fusion, got %d results", len(fused))
	}

	// One-sided input still ranks
	fused = NewReciprocalRankFusion().Fuse([]SearchResult{{ID: 1}, {ID: 2}}, nil)
	if len(fused) != 2 || fused[0].ID != 1 {
		t.Errorf("Expected [1 2] from one-sided fusion, got %v", fused)
	}
}
