package core

import "context"

// IndexFactory creates the index pair backing a collection
type IndexFactory interface {
	CreateDenseIndex(dimension int, metric DistanceMetric) (DenseIndex, error)
	CreateSparseIndex() SparseIndex
}

// DenseIndex is a similarity index over fixed-dimension dense vectors
type DenseIndex interface {
	// Insert adds a vector, overwriting any entry with the same id
	Insert(id uint64, vector []float32) error

	// Search returns the top limit entries by descending similarity to
	// query. Ties keep insertion order. An empty index yields an empty
	// result, not an error.
	Search(query []float32, limit int) ([]SearchResult, error)

	// Size returns the number of indexed vectors
	Size() int
}

// SparseIndex is an inverted index over sparse vectors
type SparseIndex interface {
	// Insert adds a sparse vector, overwriting any entry with the same id.
	// Zero-weight dimensions are not stored.
	Insert(id uint64, vec SparseVector)

	// Search returns the top limit entries by descending weighted overlap
	// with query. Records sharing no dimension with the query are excluded.
	Search(query SparseVector, limit int) []SearchResult

	// Size returns the number of indexed vectors
	Size() int
}

// Persistence handles durable storage of records and collections
type Persistence interface {
	// Record operations
	SaveRecord(ctx context.Context, collection string, rec Record) error
	SaveRecordsBatch(ctx context.Context, collection string, recs []Record) error
	LoadRecord(ctx context.Context, collection string, id uint64) (Record, error)
	LoadRecords(ctx context.Context, collection string) ([]Record, error)
	CountRecords(ctx context.Context, collection string) (int, error)

	// Collection operations
	SaveCollection(ctx context.Context, collection Collection) error
	LoadCollection(ctx context.Context, name string) (Collection, error)
	LoadCollections(ctx context.Context) ([]Collection, error)
	DeleteCollection(ctx context.Context, name string) error

	// Id allocation. AllocateIDs reserves count sequential ids for the
	// collection and returns the first; ObserveID raises the allocator past
	// a caller-supplied id so later allocations never collide with it.
	AllocateIDs(ctx context.Context, collection string, count int) (uint64, error)
	ObserveID(ctx context.Context, collection string, id uint64) error

	// Lifecycle
	Close() error
}
