package core

import (
	"time"
)

// SparseVector maps sparse dimension ids to non-zero weights. Most
// dimensions are absent; absent means zero.
type SparseVector map[uint32]float32

// Record is the canonical unit of storage: a text payload plus the vectors
// used to retrieve it. ID zero means "not assigned yet"; the store allocates
// a sequential id on insert.
type Record struct {
	ID       uint64            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Dense    []float32         `json:"dense"`
	Sparse   SparseVector      `json:"sparse,omitempty"`
}

// Collection describes a named vector space. Dimension and Distance are
// fixed at creation time; every dense vector inserted must match Dimension
// exactly.
type Collection struct {
	Name      string         `json:"name"`
	Dimension int            `json:"dimension"`
	Distance  DistanceMetric `json:"distance"`
	CreatedAt time.Time      `json:"created_at"`
}

// CollectionInfo is the metadata returned for an existing collection.
type CollectionInfo struct {
	Collection
	RecordCount int `json:"record_count"`
}

// SearchResult is a single ranked hit from an index. Score semantics depend
// on the producing index: raw similarity for dense, weighted overlap for
// sparse, RRF score after fusion.
type SearchResult struct {
	ID    uint64  `json:"id"`
	Score float64 `json:"score"`
}

// ScoredText is a caller-facing result row: the record's text payload with
// the score that ranked it.
type ScoredText struct {
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}
