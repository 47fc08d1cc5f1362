package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
)

// Collection implements storage.Collection for BadgerDB.
type Collection struct {
	name    string
	backend *Backend
}

var _ storage.Collection = (*Collection)(nil)

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// InsertOne stores a new entry under a fresh UUID unless entry.ID is set.
// Returns storage.ErrDuplicateKey if an entry with that ID exists.
func (c *Collection) InsertOne(ctx context.Context, entry *core.VectorEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return c.write(ctx, entry, false)
}

// UpsertOne stores entry under entry.ID, replacing an existing entry.
func (c *Collection) UpsertOne(ctx context.Context, entry *core.VectorEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("upsert: %w", core.ErrEmptyID)
	}
	return c.write(ctx, entry, true)
}

func (c *Collection) write(ctx context.Context, entry *core.VectorEntry, replace bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateVectorEntry(entry); err != nil {
		return err
	}
	if entry.InsertedAt.IsZero() {
		entry.InsertedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	value, err := storage.MarshalVectorEntry(entry)
	if err != nil {
		return err
	}

	return c.backend.Update(func(tx *badger.Txn) error {
		info, err := readCollectionInfo(tx, c.name)
		if err != nil {
			return err
		}
		if len(entry.Vector) != info.Dimension {
			return fmt.Errorf("%w: collection %q expects %d, got %d",
				storage.ErrDimensionMismatch, c.name, info.Dimension, len(entry.Vector))
		}

		key := makeEntryKey(c.name, entry.ID)
		old, err := readEntry(tx, key)
		if err != nil {
			return err
		}
		if old != nil {
			if !replace {
				return fmt.Errorf("%w: entry %q", storage.ErrDuplicateKey, entry.ID)
			}
			// Drop the stale index key if the replacement moved it.
			oldIndex := makeDocumentKey(c.name, old.DocumentID, old.Sequence, old.ID)
			if !bytes.Equal(oldIndex, makeDocumentKey(c.name, entry.DocumentID, entry.Sequence, entry.ID)) {
				if err := tx.Delete(oldIndex); err != nil {
					return err
				}
			}
		}

		if err := tx.Set(key, value); err != nil {
			return err
		}
		indexKey := makeDocumentKey(c.name, entry.DocumentID, entry.Sequence, entry.ID)
		return tx.Set(indexKey, []byte(entry.ID))
	})
}

// CountDocuments counts the entries of the collection.
func (c *Collection) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := readCollectionInfo(tx, c.name); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeEntryPrefix(c.name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindByDocumentID returns the entries of one document in sequence order.
func (c *Collection) FindByDocumentID(ctx context.Context, documentID string) ([]*core.VectorEntry, error) {
	var entries []*core.VectorEntry
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := readCollectionInfo(tx, c.name); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(c.name, documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			entry, err := readEntry(tx, makeEntryKey(c.name, string(id)))
			if err != nil {
				return err
			}
			// Document IDs may contain the key separator, so the prefix can
			// also match longer IDs.
			if entry == nil || entry.DocumentID != documentID {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// readEntry returns nil, nil when the key is absent.
func readEntry(tx *badger.Txn, key []byte) (*core.VectorEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.VectorEntry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalVectorEntry(val)
		return unmarshalErr
	})
	return entry, err
}
