package persistence

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/fusevec/fusevec/core"
)

const (
	// Key prefixes for different data types
	recordKeyPrefix     = "r:"
	collectionKeyPrefix = "c:"
	counterKeyPrefix    = "n:"
)

// BadgerPersistence implements persistence using BadgerDB
type BadgerPersistence struct {
	db   *badger.DB
	path string
}

// NewBadgerPersistence creates a new BadgerDB persistence layer
func NewBadgerPersistence(dbPath string) (*BadgerPersistence, error) {
	// Ensure directory exists
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dbPath, err)
	}

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable logging for cleaner output

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", dbPath, err)
	}

	return &BadgerPersistence{
		db:   db,
		path: dbPath,
	}, nil
}

// makeRecordKey creates a key for storing records. The id part is fixed
// width big-endian so prefix iteration yields records in id order.
func (b *BadgerPersistence) makeRecordKey(collection string, id uint64) []byte {
	prefix := b.makeRecordPrefix(collection)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

// makeRecordPrefix creates the key prefix covering all of a collection's records
func (b *BadgerPersistence) makeRecordPrefix(collection string) []byte {
	return []byte(recordKeyPrefix + collection + ":")
}

// makeCollectionKey creates a key for storing collection metadata
func (b *BadgerPersistence) makeCollectionKey(name string) []byte {
	return []byte(collectionKeyPrefix + name)
}

// makeCounterKey creates a key for a collection's id counter
func (b *BadgerPersistence) makeCounterKey(name string) []byte {
	return []byte(counterKeyPrefix + name)
}

// SaveRecord stores a record in BadgerDB
func (b *BadgerPersistence) SaveRecord(ctx context.Context, collection string, rec core.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %d: %w", rec.ID, err)
	}

	key := b.makeRecordKey(collection, rec.ID)

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// SaveRecordsBatch stores multiple records in a single transaction
func (b *BadgerPersistence) SaveRecordsBatch(ctx context.Context, collection string, recs []core.Record) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, rec := range recs {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal record %d: %w", rec.ID, err)
			}

			if err := txn.Set(b.makeRecordKey(collection, rec.ID), data); err != nil {
				return fmt.Errorf("failed to store record %d: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// LoadRecord retrieves a record by id from BadgerDB
func (b *BadgerPersistence) LoadRecord(ctx context.Context, collection string, id uint64) (core.Record, error) {
	var rec core.Record
	key := b.makeRecordKey(collection, id)

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: record %d in collection %s", core.ErrRecordNotFound, id, collection)
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	if err != nil {
		return core.Record{}, err
	}

	return rec, nil
}

// LoadRecords retrieves all records from a collection in id order
func (b *BadgerPersistence) LoadRecords(ctx context.Context, collection string) ([]core.Record, error) {
	var records []core.Record
	prefix := b.makeRecordPrefix(collection)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec core.Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to unmarshal record: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return records, nil
}

// CountRecords returns the number of records in a collection
func (b *BadgerPersistence) CountRecords(ctx context.Context, collection string) (int, error) {
	count := 0
	prefix := b.makeRecordPrefix(collection)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// SaveCollection stores collection metadata
func (b *BadgerPersistence) SaveCollection(ctx context.Context, collection core.Collection) error {
	if err := core.ValidateCollection(collection); err != nil {
		return fmt.Errorf("invalid collection: %w", err)
	}

	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.makeCollectionKey(collection.Name), data)
	})
}

// LoadCollection retrieves collection metadata
func (b *BadgerPersistence) LoadCollection(ctx context.Context, name string) (core.Collection, error) {
	var collection core.Collection

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.makeCollectionKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &collection)
		})
	})

	if err != nil {
		return core.Collection{}, err
	}

	return collection, nil
}

// LoadCollections retrieves all collection metadata
func (b *BadgerPersistence) LoadCollections(ctx context.Context) ([]core.Collection, error) {
	var collections []core.Collection

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var collection core.Collection
				if err := json.Unmarshal(val, &collection); err != nil {
					return fmt.Errorf("failed to unmarshal collection: %w", err)
				}
				collections = append(collections, collection)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return collections, nil
}

// DeleteCollection removes a collection, its records, and its id counter
func (b *BadgerPersistence) DeleteCollection(ctx context.Context, name string) error {
	// Collect record keys first; deleting while iterating invalidates the iterator
	var recordKeys [][]byte
	prefix := b.makeRecordPrefix(name)

	err := b.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(b.makeCollectionKey(name)); err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
			}
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			recordKeys = append(recordKeys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(b.makeCollectionKey(name)); err != nil {
			return fmt.Errorf("failed to delete collection metadata: %w", err)
		}
		if err := txn.Delete(b.makeCounterKey(name)); err != nil {
			return fmt.Errorf("failed to delete id counter: %w", err)
		}
		for _, key := range recordKeys {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete record: %w", err)
			}
		}
		return nil
	})
}

// AllocateIDs reserves count sequential ids and returns the first
func (b *BadgerPersistence) AllocateIDs(ctx context.Context, collection string, count int) (uint64, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: id count must be positive, got %d", core.ErrValidation, count)
	}

	var first uint64
	err := b.db.Update(func(txn *badger.Txn) error {
		last, err := b.readCounter(txn, collection)
		if err != nil {
			return err
		}

		first = last + 1
		return b.writeCounter(txn, collection, last+uint64(count))
	})

	return first, err
}

// ObserveID raises the allocator past a caller-supplied id
func (b *BadgerPersistence) ObserveID(ctx context.Context, collection string, id uint64) error {
	return b.db.Update(func(txn *badger.Txn) error {
		last, err := b.readCounter(txn, collection)
		if err != nil {
			return err
		}

		if id <= last {
			return nil
		}
		return b.writeCounter(txn, collection, id)
	})
}

func (b *BadgerPersistence) readCounter(txn *badger.Txn, collection string) (uint64, error) {
	item, err := txn.Get(b.makeCounterKey(collection))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var last uint64
	err = item.Value(func(val []byte) error {
		last = binary.BigEndian.Uint64(val)
		return nil
	})
	return last, err
}

func (b *BadgerPersistence) writeCounter(txn *badger.Txn, collection string, value uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return txn.Set(b.makeCounterKey(collection), buf)
}

// Close closes the BadgerDB database
func (b *BadgerPersistence) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
