package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the ingestion batch size when the caller does not
	// choose one
	DefaultBatchSize = 50

	// DefaultSearchLimit is the result limit when the caller does not
	// choose one
	DefaultSearchLimit = 5
)

// collectionHandle bundles the live state of one collection. Its mutex
// serializes the fan-out write across store and both indexes, so a record's
// presence in all three changes atomically for outside observers. dropped
// marks a handle whose collection was deleted; operations that fetched the
// handle before the drop must observe it after locking and fail.
type collectionHandle struct {
	mu      sync.RWMutex
	meta    Collection
	dense   DenseIndex
	sparse  SparseIndex
	dropped bool
}

// Engine is the collection-oriented hybrid search engine. It owns the set of
// named collections, validates schema on ingestion, and executes dense,
// sparse, and fused queries against them.
type Engine struct {
	mu           sync.RWMutex
	persistence  Persistence
	indexFactory IndexFactory
	fusion       *ReciprocalRankFusion
	collections  map[string]*collectionHandle
}

// NewEngine creates an engine on top of the given persistence layer and
// index factory, rebuilding in-memory indexes for every persisted
// collection.
func NewEngine(persistence Persistence, indexFactory IndexFactory) (*Engine, error) {
	e := &Engine{
		persistence:  persistence,
		indexFactory: indexFactory,
		fusion:       NewReciprocalRankFusion(),
		collections:  make(map[string]*collectionHandle),
	}

	if err := e.restoreCollections(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to restore collections: %w", err)
	}

	return e, nil
}

// restoreCollections rebuilds indexes from persisted records on startup
func (e *Engine) restoreCollections(ctx context.Context) error {
	collections, err := e.persistence.LoadCollections(ctx)
	if err != nil {
		return err
	}

	for _, col := range collections {
		handle, err := e.newHandle(col)
		if err != nil {
			return fmt.Errorf("collection %s: %w", col.Name, err)
		}

		records, err := e.persistence.LoadRecords(ctx, col.Name)
		if err != nil {
			return fmt.Errorf("collection %s: %w", col.Name, err)
		}

		for _, rec := range records {
			if err := handle.dense.Insert(rec.ID, rec.Dense); err != nil {
				return fmt.Errorf("collection %s record %d: %w", col.Name, rec.ID, err)
			}
			handle.sparse.Insert(rec.ID, rec.Sparse)
		}

		e.collections[col.Name] = handle
	}

	return nil
}

func (e *Engine) newHandle(col Collection) (*collectionHandle, error) {
	dense, err := e.indexFactory.CreateDenseIndex(col.Dimension, col.Distance)
	if err != nil {
		return nil, fmt.Errorf("failed to create dense index: %w", err)
	}

	return &collectionHandle{
		meta:   col,
		dense:  dense,
		sparse: e.indexFactory.CreateSparseIndex(),
	}, nil
}

func (e *Engine) handle(name string) (*collectionHandle, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	handle, ok := e.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return handle, nil
}

// CollectionExists reports whether a collection with the given name exists
func (e *Engine) CollectionExists(ctx context.Context, name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.collections[name]
	return ok
}

// CreateCollection creates an empty collection with the given schema.
// Returns true if the collection was created. Creating an existing
// collection is a no-op returning false, unless doReset is set, in which
// case the existing collection and all its records are dropped first and
// the result is always true.
func (e *Engine) CreateCollection(ctx context.Context, name string, dimension int, metric DistanceMetric, doReset bool) (bool, error) {
	col := Collection{
		Name:      name,
		Dimension: dimension,
		Distance:  metric,
		CreatedAt: time.Now().UTC(),
	}
	if err := ValidateCollection(col); err != nil {
		return false, fmt.Errorf("invalid collection specification: %w", err)
	}

	// Lifecycle is exclusive with all other operations on the name
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.collections[name]; ok {
		if !doReset {
			return false, nil
		}
		if err := e.dropLocked(ctx, name); err != nil {
			return false, err
		}
	}

	if err := e.persistence.SaveCollection(ctx, col); err != nil {
		return false, fmt.Errorf("failed to save collection: %w", err)
	}

	handle, err := e.newHandle(col)
	if err != nil {
		return false, err
	}

	e.collections[name] = handle
	return true, nil
}

// DeleteCollection removes a collection together with all its records and
// index state. Deleting an absent collection is a no-op returning false.
func (e *Engine) DeleteCollection(ctx context.Context, name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.collections[name]; !ok {
		return false, nil
	}

	if err := e.dropLocked(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

// dropLocked removes collection state; caller holds e.mu. Taking the
// handle's write lock waits out in-flight operations that already hold it,
// and setting dropped fails operations that fetched the handle but have not
// locked it yet. Either way no write lands after the storage delete.
func (e *Engine) dropLocked(ctx context.Context, name string) error {
	if handle, ok := e.collections[name]; ok {
		handle.mu.Lock()
		handle.dropped = true
		handle.mu.Unlock()
	}
	delete(e.collections, name)

	err := e.persistence.DeleteCollection(ctx, name)
	if err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// GetCollectionInfo returns collection metadata and the record count.
// Fails with ErrCollectionNotFound if the collection is absent.
func (e *Engine) GetCollectionInfo(ctx context.Context, name string) (CollectionInfo, error) {
	handle, err := e.handle(name)
	if err != nil {
		return CollectionInfo{}, err
	}

	handle.mu.RLock()
	defer handle.mu.RUnlock()

	if handle.dropped {
		return CollectionInfo{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	count, err := e.persistence.CountRecords(ctx, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("failed to count records: %w", err)
	}

	return CollectionInfo{Collection: handle.meta, RecordCount: count}, nil
}

// ListCollections returns all collections, ordered by name
func (e *Engine) ListCollections(ctx context.Context) ([]Collection, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	collections := make([]Collection, 0, len(e.collections))
	for _, handle := range e.collections {
		collections = append(collections, handle.meta)
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})

	return collections, nil
}

// InsertOne writes a single record to the store and both indexes. A zero id
// means the store assigns the next sequential id; a caller-supplied id that
// collides overwrites the previous record (last-write-wins).
func (e *Engine) InsertOne(ctx context.Context, collection string, rec Record) (uint64, error) {
	handle, err := e.handle(collection)
	if err != nil {
		return 0, err
	}

	if err := ValidateRecord(rec); err != nil {
		return 0, err
	}
	if err := ValidateDimension(rec.Dense, handle.meta.Dimension); err != nil {
		return 0, err
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()

	if handle.dropped {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	if rec.ID == 0 {
		id, err := e.persistence.AllocateIDs(ctx, collection, 1)
		if err != nil {
			return 0, fmt.Errorf("failed to allocate record id: %w", err)
		}
		rec.ID = id
	} else if err := e.persistence.ObserveID(ctx, collection, rec.ID); err != nil {
		return 0, fmt.Errorf("failed to record id: %w", err)
	}

	if err := e.persistence.SaveRecord(ctx, collection, rec); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransientWrite, err)
	}

	if err := handle.dense.Insert(rec.ID, rec.Dense); err != nil {
		return 0, err
	}
	handle.sparse.Insert(rec.ID, rec.Sparse)

	return rec.ID, nil
}

// InsertMany writes records in batches of batchSize (DefaultBatchSize when
// non-positive). Each batch is validated and committed independently: a
// failure aborts the whole call immediately, but batches already written
// stay committed. There is no cross-batch rollback.
func (e *Engine) InsertMany(ctx context.Context, collection string, recs []Record, batchSize int) error {
	handle, err := e.handle(collection)
	if err != nil {
		return err
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()

	if handle.dropped {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	for start := 0; start < len(recs); start += batchSize {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}

		batch := make([]Record, end-start)
		copy(batch, recs[start:end])

		// Schema failure anywhere in the batch fails the whole call
		for i := range batch {
			if err := ValidateRecord(batch[i]); err != nil {
				return err
			}
			if err := ValidateDimension(batch[i].Dense, handle.meta.Dimension); err != nil {
				return err
			}
		}

		if err := e.assignIDs(ctx, collection, batch); err != nil {
			return err
		}

		if err := e.persistence.SaveRecordsBatch(ctx, collection, batch); err != nil {
			return fmt.Errorf("%w: %v", ErrTransientWrite, err)
		}

		for i := range batch {
			if err := handle.dense.Insert(batch[i].ID, batch[i].Dense); err != nil {
				return err
			}
			handle.sparse.Insert(batch[i].ID, batch[i].Sparse)
		}
	}

	return nil
}

// assignIDs fills in store-assigned ids for records with a zero id and
// bumps the allocator past caller-supplied ones
func (e *Engine) assignIDs(ctx context.Context, collection string, batch []Record) error {
	needed := 0
	for i := range batch {
		if batch[i].ID == 0 {
			needed++
		}
	}

	var next uint64
	if needed > 0 {
		first, err := e.persistence.AllocateIDs(ctx, collection, needed)
		if err != nil {
			return fmt.Errorf("failed to allocate record ids: %w", err)
		}
		next = first
	}

	for i := range batch {
		if batch[i].ID == 0 {
			batch[i].ID = next
			next++
			continue
		}
		if err := e.persistence.ObserveID(ctx, collection, batch[i].ID); err != nil {
			return fmt.Errorf("failed to record id: %w", err)
		}
	}

	return nil
}

// GetRecord retrieves a record by id. Fails with ErrRecordNotFound or
// ErrCollectionNotFound.
func (e *Engine) GetRecord(ctx context.Context, collection string, id uint64) (Record, error) {
	handle, err := e.handle(collection)
	if err != nil {
		return Record{}, err
	}

	handle.mu.RLock()
	defer handle.mu.RUnlock()

	if handle.dropped {
		return Record{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	return e.persistence.LoadRecord(ctx, collection, id)
}

// SearchByVector runs a dense similarity search. A nil result with a nil
// error means the collection yielded nothing; it is not a failure.
func (e *Engine) SearchByVector(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredText, error) {
	handle, err := e.handle(collection)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	handle.mu.RLock()
	defer handle.mu.RUnlock()

	if handle.dropped {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	if err := ValidateQuery(vector, handle.meta.Dimension); err != nil {
		return nil, err
	}

	hits, err := handle.dense.Search(vector, limit)
	if err != nil {
		return nil, fmt.Errorf("dense search failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	return e.resolveTexts(ctx, collection, hits)
}

// SearchHybrid runs the dense and sparse prefetch sub-searches concurrently
// and fuses both ranked lists with Reciprocal Rank Fusion. Sub-search limits
// default to the final limit when non-positive. A nil result with a nil
// error means the fused list was empty.
func (e *Engine) SearchHybrid(ctx context.Context, collection string, dense []float32, sparse SparseVector, denseLimit, sparseLimit, limit int) ([]ScoredText, error) {
	handle, err := e.handle(collection)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if denseLimit <= 0 {
		denseLimit = limit
	}
	if sparseLimit <= 0 {
		sparseLimit = limit
	}

	handle.mu.RLock()
	defer handle.mu.RUnlock()

	if handle.dropped {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	if err := ValidateQuery(dense, handle.meta.Dimension); err != nil {
		return nil, err
	}

	// Prefetches are pure reads with no shared mutable state
	var denseHits, sparseHits []SearchResult
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		denseHits, err = handle.dense.Search(dense, denseLimit)
		return err
	})
	g.Go(func() error {
		sparseHits = handle.sparse.Search(sparse, sparseLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prefetch failed: %w", err)
	}

	fused := e.fusion.Fuse(denseHits, sparseHits)
	if limit < len(fused) {
		fused = fused[:limit]
	}
	if len(fused) == 0 {
		return nil, nil
	}

	return e.resolveTexts(ctx, collection, fused)
}

// resolveTexts looks up the text payload for each ranked hit
func (e *Engine) resolveTexts(ctx context.Context, collection string, hits []SearchResult) ([]ScoredText, error) {
	results := make([]ScoredText, len(hits))
	for i, hit := range hits {
		rec, err := e.persistence.LoadRecord(ctx, collection, hit.ID)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", hit.ID, err)
		}
		results[i] = ScoredText{Score: hit.Score, Text: rec.Text}
	}
	return results, nil
}

// Close closes the engine and its storage handle
func (e *Engine) Close() error {
	return e.persistence.Close()
}
