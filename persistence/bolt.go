package persistence

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fusevec/fusevec/core"
	"go.etcd.io/bbolt"
)

const (
	// Bucket names for different data types
	recordsBucketPrefix = "records_"
	collectionsBucket   = "collections"
	countersBucket      = "counters"
)

// BoltPersistence implements persistence using BoltDB
type BoltPersistence struct {
	db   *bbolt.DB
	path string
}

// NewBoltPersistence creates a new BoltDB persistence layer
func NewBoltPersistence(dbPath string) (*BoltPersistence, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB at %s: %w", dbPath, err)
	}

	persistence := &BoltPersistence{
		db:   db,
		path: dbPath,
	}

	if err := persistence.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return persistence, nil
}

// initBuckets creates the required buckets if they don't exist
func (b *BoltPersistence) initBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(collectionsBucket)); err != nil {
			return fmt.Errorf("failed to create collections bucket: %w", err)
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(countersBucket)); err != nil {
			return fmt.Errorf("failed to create counters bucket: %w", err)
		}

		return nil
	})
}

// recordKey encodes a record id as a big-endian key so bucket iteration
// yields records in id order
func recordKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// SaveRecord stores a record in BoltDB
func (b *BoltPersistence) SaveRecord(ctx context.Context, collection string, rec core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %d: %w", rec.ID, err)
	}

	bucketName := recordsBucketPrefix + collection

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create/get bucket %s: %w", bucketName, err)
		}

		return bucket.Put(recordKey(rec.ID), data)
	})
}

// SaveRecordsBatch stores multiple records in a single transaction
func (b *BoltPersistence) SaveRecordsBatch(ctx context.Context, collection string, recs []core.Record) error {
	bucketName := recordsBucketPrefix + collection

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return fmt.Errorf("failed to create/get bucket %s: %w", bucketName, err)
		}

		for _, rec := range recs {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal record %d: %w", rec.ID, err)
			}

			if err := bucket.Put(recordKey(rec.ID), data); err != nil {
				return fmt.Errorf("failed to store record %d: %w", rec.ID, err)
			}
		}

		return nil
	})
}

// LoadRecord retrieves a record by id from BoltDB
func (b *BoltPersistence) LoadRecord(ctx context.Context, collection string, id uint64) (core.Record, error) {
	var rec core.Record
	bucketName := recordsBucketPrefix + collection

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return fmt.Errorf("%w: record %d in collection %s", core.ErrRecordNotFound, id, collection)
		}

		data := bucket.Get(recordKey(id))
		if data == nil {
			return fmt.Errorf("%w: record %d in collection %s", core.ErrRecordNotFound, id, collection)
		}

		return json.Unmarshal(data, &rec)
	})

	if err != nil {
		return core.Record{}, err
	}

	return rec, nil
}

// LoadRecords retrieves all records from a collection in id order
func (b *BoltPersistence) LoadRecords(ctx context.Context, collection string) ([]core.Record, error) {
	var records []core.Record
	bucketName := recordsBucketPrefix + collection

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			// Collection has no records yet
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var rec core.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			records = append(records, rec)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

// CountRecords returns the number of records in a collection
func (b *BoltPersistence) CountRecords(ctx context.Context, collection string) (int, error) {
	count := 0
	bucketName := recordsBucketPrefix + collection

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return nil
		}
		count = bucket.Stats().KeyN
		return nil
	})

	return count, err
}

// SaveCollection stores collection metadata
func (b *BoltPersistence) SaveCollection(ctx context.Context, collection core.Collection) error {
	if err := core.ValidateCollection(collection); err != nil {
		return fmt.Errorf("invalid collection: %w", err)
	}

	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collectionsBucket))
		return bucket.Put([]byte(collection.Name), data)
	})
}

// LoadCollection retrieves collection metadata
func (b *BoltPersistence) LoadCollection(ctx context.Context, name string) (core.Collection, error) {
	var collection core.Collection

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collectionsBucket))
		data := bucket.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
		}

		return json.Unmarshal(data, &collection)
	})

	if err != nil {
		return core.Collection{}, err
	}

	return collection, nil
}

// LoadCollections retrieves all collection metadata
func (b *BoltPersistence) LoadCollections(ctx context.Context) ([]core.Collection, error) {
	var collections []core.Collection

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collectionsBucket))

		return bucket.ForEach(func(k, v []byte) error {
			var collection core.Collection
			if err := json.Unmarshal(v, &collection); err != nil {
				return fmt.Errorf("failed to unmarshal collection %s: %w", string(k), err)
			}
			collections = append(collections, collection)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return collections, nil
}

// DeleteCollection removes a collection, its records, and its id counter
func (b *BoltPersistence) DeleteCollection(ctx context.Context, name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collectionsBucket))
		if bucket.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
		}

		if err := bucket.Delete([]byte(name)); err != nil {
			return fmt.Errorf("failed to delete collection metadata: %w", err)
		}

		bucketName := recordsBucketPrefix + name
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete records bucket: %w", err)
		}

		counters := tx.Bucket([]byte(countersBucket))
		if err := counters.Delete([]byte(name)); err != nil {
			return fmt.Errorf("failed to delete id counter: %w", err)
		}

		return nil
	})
}

// AllocateIDs reserves count sequential ids and returns the first
func (b *BoltPersistence) AllocateIDs(ctx context.Context, collection string, count int) (uint64, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: id count must be positive, got %d", core.ErrValidation, count)
	}

	var first uint64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(countersBucket))

		var last uint64
		if data := bucket.Get([]byte(collection)); data != nil {
			last = binary.BigEndian.Uint64(data)
		}

		first = last + 1
		return bucket.Put([]byte(collection), recordKey(last+uint64(count)))
	})

	return first, err
}

// ObserveID raises the allocator past a caller-supplied id
func (b *BoltPersistence) ObserveID(ctx context.Context, collection string, id uint64) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(countersBucket))

		var last uint64
		if data := bucket.Get([]byte(collection)); data != nil {
			last = binary.BigEndian.Uint64(data)
		}

		if id <= last {
			return nil
		}
		return bucket.Put([]byte(collection), recordKey(id))
	})
}

// Close closes the BoltDB database
func (b *BoltPersistence) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
