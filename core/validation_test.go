package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{
			name:   "valid record",
			record: Record{Text: "ok", Dense: []float32{1, 2, 3}},
		},
		{
			name:   "valid with sparse",
			record: Record{Text: "ok", Dense: []float32{1}, Sparse: SparseVector{3: 0.5}},
		},
		{
			name:    "empty dense vector",
			record:  Record{Text: "empty"},
			wantErr: true,
		},
		{
			name:    "NaN in dense vector",
			record:  Record{Dense: []float32{1, float32(math.NaN())}},
			wantErr: true,
		},
		{
			name:    "infinite dense value",
			record:  Record{Dense: []float32{float32(math.Inf(1))}},
			wantErr: true,
		},
		{
			name:    "NaN sparse weight",
			record:  Record{Dense: []float32{1}, Sparse: SparseVector{1: float32(math.NaN())}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCollection(t *testing.T) {
	tests := []struct {
		name       string
		collection Collection
		wantErr    error
	}{
		{
			name:       "valid cosine",
			collection: Collection{Name: "docs", Dimension: 128, Distance: DistanceCosine},
		},
		{
			name:       "valid dot",
			collection: Collection{Name: "docs", Dimension: 4, Distance: DistanceDot},
		},
		{
			name:       "empty name",
			collection: Collection{Dimension: 4, Distance: DistanceCosine},
			wantErr:    ErrValidation,
		},
		{
			name:       "path separator in name",
			collection: Collection{Name: "a/b", Dimension: 4, Distance: DistanceCosine},
			wantErr:    ErrValidation,
		},
		{
			name:       "zero dimension",
			collection: Collection{Name: "docs", Distance: DistanceCosine},
			wantErr:    ErrValidation,
		},
		{
			name:       "unknown metric",
			collection: Collection{Name: "docs", Dimension: 4, Distance: "l2"},
			wantErr:    ErrInvalidDistance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollection(tt.collection)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery([]float32{1, 2}, 2); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := ValidateQuery(nil, 2); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty query, got %v", err)
	}

	if err := ValidateQuery([]float32{1}, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}

	if err := ValidateQuery([]float32{float32(math.NaN()), 1}, 2); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for NaN query, got %v", err)
	}
}

func TestAssembleRecords(t *testing.T) {
	texts := []string{"a", "b"}
	dense := [][]float32{{1, 0}, {0, 1}}

	records, err := AssembleRecords(texts, dense, nil, nil, nil)
	if err != nil {
		t.Fatalf("AssembleRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Text != "a" || records[1].ID != 0 {
		t.Errorf("Unexpected records: %+v", records)
	}

	// Optional arrays carried through when present
	sparse := []SparseVector{{1: 0.5}, {2: 0.7}}
	metadata := []map[string]string{{"src": "x"}, {"src": "y"}}
	ids := []uint64{10, 20}
	records, err = AssembleRecords(texts, dense, sparse, metadata, ids)
	if err != nil {
		t.Fatalf("AssembleRecords failed: %v", err)
	}
	if records[1].ID != 20 || records[1].Metadata["src"] != "y" || records[1].Sparse[2] != 0.7 {
		t.Errorf("Optional fields not carried through: %+v", records[1])
	}
}

func TestAssembleRecordsLengthMismatch(t *testing.T) {
	texts := []string{"a", "b"}

	cases := []struct {
		name     string
		dense    [][]float32
		sparse   []SparseVector
		metadata []map[string]string
		ids      []uint64
	}{
		{name: "dense shorter", dense: [][]float32{{1}}},
		{name: "sparse shorter", dense: [][]float32{{1}, {2}}, sparse: []SparseVector{{1: 1}}},
		{name: "metadata longer", dense: [][]float32{{1}, {2}}, metadata: []map[string]string{{}, {}, {}}},
		{name: "ids shorter", dense: [][]float32{{1}, {2}}, ids: []uint64{1}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssembleRecords(texts, tt.dense, tt.sparse, tt.metadata, tt.ids)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}
